package domain

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PathEnsemble 路径集合
// 形状为 paths × (steps+1) 的稠密网格，第 0 列为初始值。
// 既可表示短期利率路径，也可表示股价路径。
type PathEnsemble struct {
	grid    *mat.Dense
	horizon float64
}

// NewPathEnsemble 创建路径集合，并将第 0 列填充为初始值
func NewPathEnsemble(paths, steps int, horizon, initial float64) (*PathEnsemble, error) {
	if paths <= 0 {
		return nil, fmt.Errorf("%w: path count must be positive, got %d", ErrInvalidParameter, paths)
	}
	if steps <= 0 {
		return nil, fmt.Errorf("%w: step count must be positive, got %d", ErrInvalidParameter, steps)
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %v", ErrInvalidParameter, horizon)
	}

	grid := mat.NewDense(paths, steps+1, nil)
	for i := 0; i < paths; i++ {
		grid.Set(i, 0, initial)
	}
	return &PathEnsemble{grid: grid, horizon: horizon}, nil
}

// Paths 路径数
func (e *PathEnsemble) Paths() int {
	r, _ := e.grid.Dims()
	return r
}

// Steps 时间步数（列数减一）
func (e *PathEnsemble) Steps() int {
	_, c := e.grid.Dims()
	return c - 1
}

// Horizon 模拟期限（年）
func (e *PathEnsemble) Horizon() float64 { return e.horizon }

// Dt 单步时间间隔
func (e *PathEnsemble) Dt() float64 {
	return e.horizon / float64(e.Steps())
}

// At 返回第 path 条路径第 step 步的值
func (e *PathEnsemble) At(path, step int) float64 {
	return e.grid.At(path, step)
}

func (e *PathEnsemble) set(path, step int, v float64) {
	e.grid.Set(path, step, v)
}

// Column 返回第 step 步的横截面拷贝
func (e *PathEnsemble) Column(step int) []float64 {
	return mat.Col(nil, step, e.grid)
}

// Terminal 返回到期横截面
func (e *PathEnsemble) Terminal() []float64 {
	return e.Column(e.Steps())
}

// Row 返回第 path 条路径的拷贝
func (e *PathEnsemble) Row(path int) []float64 {
	return mat.Row(nil, path, e.grid)
}

// Rows 以二维切片形式导出全部路径
func (e *PathEnsemble) Rows() [][]float64 {
	rows := make([][]float64, e.Paths())
	for i := range rows {
		rows[i] = e.Row(i)
	}
	return rows
}

// TimePoints 返回 steps+1 个等距时间点 [0, horizon]
func (e *PathEnsemble) TimePoints() []float64 {
	steps := e.Steps()
	points := make([]float64, steps+1)
	for j := range points {
		points[j] = e.horizon * float64(j) / float64(steps)
	}
	points[steps] = e.horizon
	return points
}

// SameShape 判断两个路径集合维度是否一致
func (e *PathEnsemble) SameShape(other *PathEnsemble) bool {
	if other == nil {
		return false
	}
	r1, c1 := e.grid.Dims()
	r2, c2 := other.grid.Dims()
	return r1 == r2 && c1 == c2
}
