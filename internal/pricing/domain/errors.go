package domain

import "errors"

// 定价引擎错误分类
var (
	// ErrInvalidParameter 参数缺失、格式错误或越界（期限、路径数、步数等）
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrShapeMismatch 利率路径与股价路径维度不一致
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrNumericDegenerate 数值退化（零波动率、零期限或非有限结果）
	ErrNumericDegenerate = errors.New("numeric degenerate")
)
