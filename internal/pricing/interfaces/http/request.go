package http

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// fields 宽松类型的 JSON 请求体
// 数值字段接受数字或数字字符串，缺失字段与 null 等价。
type fields map[string]any

func (f fields) lookup(key string) (any, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// float 必填浮点字段
func (f fields) float(key string) (float64, error) {
	v, ok := f.lookup(key)
	if !ok {
		return 0, fmt.Errorf("missing required field '%s'", key)
	}
	out, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("field '%s' must be a number: %v", key, v)
	}
	return out, nil
}

// floatOr 可选浮点字段
func (f fields) floatOr(key string, def float64) (float64, error) {
	if _, ok := f.lookup(key); !ok {
		return def, nil
	}
	return f.float(key)
}

// intOr 可选整数字段，小数按截断处理
func (f fields) intOr(key string, def int) (int, error) {
	v, ok := f.lookup(key)
	if !ok {
		return def, nil
	}
	// 先按十进制浮点解析再截断，"010" 不按八进制处理
	out, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(out) || math.Abs(out) > math.MaxInt32 {
		return 0, fmt.Errorf("field '%s' must be an integer: %v", key, v)
	}
	return int(out), nil
}

// stringOr 可选字符串字段，统一转小写
func (f fields) stringOr(key, def string) (string, error) {
	v, ok := f.lookup(key)
	if !ok {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("field '%s' must be a string: %v", key, v)
	}
	return strings.ToLower(strings.TrimSpace(s)), nil
}

// stringsOr 可选字符串数组字段
func (f fields) stringsOr(key string, def []string) ([]string, error) {
	v, ok := f.lookup(key)
	if !ok {
		return def, nil
	}
	if _, isList := v.([]any); !isList {
		return nil, fmt.Errorf("field '%s' must be a list of strings", key)
	}
	out, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("field '%s' must be a list of strings: %v", key, v)
	}
	return out, nil
}

// seed 可选随机种子
func (f fields) seed() (*uint64, error) {
	v, ok := f.lookup("seed")
	if !ok {
		return nil, nil
	}
	out, err := cast.ToUint64E(v)
	if err != nil {
		return nil, fmt.Errorf("field 'seed' must be a non-negative integer: %v", v)
	}
	return &out, nil
}
