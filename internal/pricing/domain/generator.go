package domain

import "math/rand/v2"

// DefaultSeed 默认随机种子
const DefaultSeed uint64 = 42

// Generator 标准正态随机数发生器
// 每个引擎实例独占一个发生器，不共享全局状态，并发请求互不干扰。
type Generator struct {
	rng *rand.Rand
}

// NewGenerator 使用给定种子创建确定性发生器
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, 0))}
}

// StdNormal 抽取一个独立标准正态样本
func (g *Generator) StdNormal() float64 {
	return g.rng.NormFloat64()
}

// Fill 为 dst 的每个元素抽取独立标准正态样本
func (g *Generator) Fill(dst []float64) {
	for i := range dst {
		dst[i] = g.rng.NormFloat64()
	}
}
