package feature

// SimilarityMatrix 计算所有向量两两之间的余弦相似度，返回稠密对称矩阵。
// 向量已 L2 归一化，余弦相似度即点积。
//
// 不变式：
//   - sim[i][j] == sim[j][i]（每对只算一次）
//   - sim[i][i] == 1.0（含零向量的退化情形）
//
// 复杂度 O(N^2 * D)，D 为非零维度数；目录规模到低万级可接受。
// 单物品语料得到 [[1.0]]；空语料得到空矩阵，调用方视为"无内容推荐"。
func SimilarityMatrix(vectors []SparseVec) [][]float64 {
	n := len(vectors)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
		sim[i][i] = 1.0
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := dot(vectors[i], vectors[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}

// dot 计算两个稀疏向量的点积，遍历较小的一侧。
func dot(a, b SparseVec) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for idx, va := range a {
		if vb, ok := b[idx]; ok {
			sum += va * vb
		}
	}
	return sum
}
