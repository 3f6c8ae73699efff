package domain

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// RateModelName 短期利率模型标识
type RateModelName string

const (
	RateModelVasicek        RateModelName = "vasicek"
	RateModelHullWhite      RateModelName = "hull-white"
	RateModelBlackDermanToy RateModelName = "black-derman-toy"
)

// ParseRateModelName 解析模型名称（大小写不敏感）
func ParseRateModelName(s string) (RateModelName, error) {
	switch name := RateModelName(strings.ToLower(strings.TrimSpace(s))); name {
	case RateModelVasicek, RateModelHullWhite, RateModelBlackDermanToy:
		return name, nil
	default:
		return "", fmt.Errorf("%w: unknown rate model %q", ErrInvalidParameter, s)
	}
}

// RateModel 短期利率模型
// 封闭的和类型：只有本包内的 Vasicek、HullWhite、BlackDermanToy 实现该接口。
type RateModel interface {
	// Name 模型标识
	Name() RateModelName
	// Simulate 生成 paths × (steps+1) 的利率路径集合，第 0 列为 r0
	// 任一利率溢出为非有限值时返回 ErrNumericDegenerate，不返回部分结果。
	Simulate(ctx context.Context, gen *Generator, r0, horizon float64, steps, paths int) (*PathEnsemble, error)

	rateModel()
}

// Vasicek 均值回复高斯模型
// dr = a(b - r)dt + σdW，允许出现负利率。
type Vasicek struct {
	Speed   float64 // a 均值回复速度
	LongRun float64 // b 长期均值
	Sigma   float64 // σ 波动率
}

// NewVasicek 创建 Vasicek 模型
func NewVasicek(speed, longRun, sigma float64) (Vasicek, error) {
	if sigma < 0 {
		return Vasicek{}, fmt.Errorf("%w: vasicek sigma must be non-negative", ErrInvalidParameter)
	}
	return Vasicek{Speed: speed, LongRun: longRun, Sigma: sigma}, nil
}

func (Vasicek) rateModel() {}

// Name 模型标识
func (Vasicek) Name() RateModelName { return RateModelVasicek }

// Simulate Euler-Maruyama 离散化
func (m Vasicek) Simulate(ctx context.Context, gen *Generator, r0, horizon float64, steps, paths int) (*PathEnsemble, error) {
	return simulateEuler(ctx, gen, m.Name(), r0, horizon, steps, paths, func(_ float64, r float64) float64 {
		return m.Speed * (m.LongRun - r)
	}, m.Sigma)
}

// BondPrice 零息债券解析价格
// P = face · A · exp(-B · r0)
func (m Vasicek) BondPrice(r0, maturity, face float64) (float64, error) {
	if m.Speed <= 0 {
		return 0, fmt.Errorf("%w: vasicek bond price requires positive speed", ErrNumericDegenerate)
	}
	if maturity < 0 {
		return 0, fmt.Errorf("%w: maturity must be non-negative", ErrInvalidParameter)
	}
	a, b, s := m.Speed, m.LongRun, m.Sigma
	bt := (1 - math.Exp(-a*maturity)) / a
	at := math.Exp((b-s*s/(2*a*a))*(bt-maturity) - (s*s/(4*a))*bt*bt)
	price := face * at * math.Exp(-bt*r0)
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: bond price is not finite", ErrNumericDegenerate)
	}
	return price, nil
}

// HullWhite 时变均值回复高斯模型
// dr = (θ(t) - a·r)dt + σdW，θ(t) 由常数远期利率近似。
type HullWhite struct {
	Speed       float64 // a
	Sigma       float64 // σ
	ForwardRate float64 // f 远期利率水平
}

// NewHullWhite 创建 Hull-White 模型，a 必须为正（θ(t) 中除以 a）
func NewHullWhite(speed, sigma, forwardRate float64) (HullWhite, error) {
	if speed <= 0 {
		return HullWhite{}, fmt.Errorf("%w: hull-white speed must be positive", ErrInvalidParameter)
	}
	if sigma < 0 {
		return HullWhite{}, fmt.Errorf("%w: hull-white sigma must be non-negative", ErrInvalidParameter)
	}
	return HullWhite{Speed: speed, Sigma: sigma, ForwardRate: forwardRate}, nil
}

func (HullWhite) rateModel() {}

// Name 模型标识
func (HullWhite) Name() RateModelName { return RateModelHullWhite }

// Theta 时变漂移水平 θ(t) = f + 0.5·(σ²/a)·(1 - e^(-2at))
func (m HullWhite) Theta(t float64) float64 {
	return m.ForwardRate + 0.5*(m.Sigma*m.Sigma/m.Speed)*(1-math.Exp(-2*m.Speed*t))
}

// Simulate Euler-Maruyama 离散化，θ 在每步按已模拟时间 t = j·dt 重新计算
func (m HullWhite) Simulate(ctx context.Context, gen *Generator, r0, horizon float64, steps, paths int) (*PathEnsemble, error) {
	return simulateEuler(ctx, gen, m.Name(), r0, horizon, steps, paths, func(t, r float64) float64 {
		return m.Theta(t) - m.Speed*r
	}, m.Sigma)
}

// BlackDermanToy 对数正态短期利率模型
// 离散化为 r_{t+1} = r_t · exp((σ²/2)dt + σ√dt·Z)，不含均值回复项。
type BlackDermanToy struct {
	Sigma float64
}

// NewBlackDermanToy 创建 BDT 模型
func NewBlackDermanToy(sigma float64) (BlackDermanToy, error) {
	if sigma < 0 {
		return BlackDermanToy{}, fmt.Errorf("%w: black-derman-toy sigma must be non-negative", ErrInvalidParameter)
	}
	return BlackDermanToy{Sigma: sigma}, nil
}

func (BlackDermanToy) rateModel() {}

// Name 模型标识
func (BlackDermanToy) Name() RateModelName { return RateModelBlackDermanToy }

// Simulate 乘法型对数正态递推
func (m BlackDermanToy) Simulate(ctx context.Context, gen *Generator, r0, horizon float64, steps, paths int) (*PathEnsemble, error) {
	ens, err := NewPathEnsemble(paths, steps, horizon, r0)
	if err != nil {
		return nil, err
	}
	dt := ens.Dt()
	drift := (m.Sigma * m.Sigma / 2) * dt
	vol := m.Sigma * math.Sqrt(dt)

	z := make([]float64, paths)
	for j := 0; j < steps; j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		gen.Fill(z)
		for i := 0; i < paths; i++ {
			r := ens.At(i, j) * math.Exp(drift+vol*z[i])
			if !isFinite(r) {
				return nil, rateOverflow(m.Name(), i, j+1)
			}
			ens.set(i, j+1, r)
		}
	}
	return ens, nil
}

// simulateEuler 加法型 Euler-Maruyama 递推：r_{t+1} = r_t + μ(t, r_t)·dt + σ·√dt·Z
func simulateEuler(ctx context.Context, gen *Generator, name RateModelName, r0, horizon float64, steps, paths int, drift func(t, r float64) float64, sigma float64) (*PathEnsemble, error) {
	ens, err := NewPathEnsemble(paths, steps, horizon, r0)
	if err != nil {
		return nil, err
	}
	dt := ens.Dt()
	vol := sigma * math.Sqrt(dt)

	z := make([]float64, paths)
	for j := 0; j < steps; j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := float64(j) * dt
		gen.Fill(z)
		for i := 0; i < paths; i++ {
			r := ens.At(i, j)
			next := r + drift(t, r)*dt + vol*z[i]
			if !isFinite(next) {
				return nil, rateOverflow(name, i, j+1)
			}
			ens.set(i, j+1, next)
		}
	}
	return ens, nil
}

func rateOverflow(name RateModelName, path, step int) error {
	return fmt.Errorf("%w: %s rate is not finite at path %d step %d", ErrNumericDegenerate, name, path, step)
}
