package domain

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ConfidenceZ 95% 双侧正态近似分位数，与样本量无关
const ConfidenceZ = 1.96

// Estimate 蒙特卡洛点估计
type Estimate struct {
	Mean     float64
	StdDev   float64 // 总体标准差（除以 n）
	StdError float64 // StdDev / √n
	N        int
}

// EstimateSample 对样本求均值、标准差与标准误
func EstimateSample(samples []float64) (Estimate, error) {
	if len(samples) == 0 {
		return Estimate{}, fmt.Errorf("%w: empty sample", ErrInvalidParameter)
	}
	mean, std := stat.PopMeanStdDev(samples, nil)
	n := len(samples)
	est := Estimate{
		Mean:     mean,
		StdDev:   std,
		StdError: stat.StdErr(std, float64(n)),
		N:        n,
	}
	if !isFinite(est.Mean) || !isFinite(est.StdError) {
		return Estimate{}, fmt.Errorf("%w: estimate is not finite (mean=%v, stderr=%v)", ErrNumericDegenerate, est.Mean, est.StdError)
	}
	return est, nil
}

// Scale 以非负常数缩放估计（常数折现因子作用于总体均值）
func (e Estimate) Scale(k float64) Estimate {
	if k < 0 {
		k = -k
	}
	return Estimate{
		Mean:     e.Mean * k,
		StdDev:   e.StdDev * k,
		StdError: e.StdError * k,
		N:        e.N,
	}
}

// ConfidenceInterval 95% 置信区间 mean ± 1.96·stderr
func (e Estimate) ConfidenceInterval() (low, high float64) {
	return e.Mean - ConfidenceZ*e.StdError, e.Mean + ConfidenceZ*e.StdError
}
