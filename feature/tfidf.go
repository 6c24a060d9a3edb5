package feature

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenRegex 在包初始化时编译一次；匹配长度 >= 2 的词元（字母/数字/下划线）。
var tokenRegex = regexp.MustCompile(`[a-z0-9_]{2,}`)

// SparseVec 是稀疏 TF-IDF 向量：词表下标 -> 权重。
type SparseVec map[int]float64

// Vectorizer 是 TF-IDF 文本向量化器。
//
// 处理流程：
//  1. 小写化 + 正则分词（词元长度 >= 2）
//  2. 剔除英文停用词
//  3. 生成 unigram + bigram
//  4. 词表按语料词频截断到 MaxFeatures（频次并列时按字典序）
//  5. 平滑 IDF：ln((1+n)/(1+df)) + 1
//  6. 每行 L2 归一化（归一化后余弦相似度退化为点积）
//
// 对同一份语料两次 FitTransform 产出逐位相同的向量（词表下标按字典序分配）。
type Vectorizer struct {
	// MaxFeatures 词表上限；<= 0 时取 5000
	MaxFeatures int

	// NGramMax n-gram 上限；<= 0 时取 2（unigram + bigram）
	NGramMax int

	// StopWords 停用词表；nil 时使用内置英文停用词
	StopWords map[string]struct{}

	// vocab 词项 -> 下标，FitTransform 后可读
	vocab map[string]int
}

// Vocabulary 返回拟合后的词表（词项 -> 下标）；未拟合时为 nil。
func (v *Vectorizer) Vocabulary() map[string]int { return v.vocab }

// FitTransform 对语料拟合词表并返回每篇文档的 L2 归一化 TF-IDF 向量。
// 空语料返回空切片；全空文档得到空向量，不报错。
func (v *Vectorizer) FitTransform(docs []string) []SparseVec {
	if len(docs) == 0 {
		v.vocab = map[string]int{}
		return []SparseVec{}
	}

	maxFeatures := v.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = 5000
	}
	ngramMax := v.NGramMax
	if ngramMax <= 0 {
		ngramMax = 2
	}
	stop := v.StopWords
	if stop == nil {
		stop = englishStopWords
	}

	// 每篇文档的词项计数
	docTerms := make([]map[string]float64, len(docs))
	totalCount := make(map[string]float64) // 语料总频次，用于词表截断
	docFreq := make(map[string]int)        // 文档频次，用于 IDF

	for i, doc := range docs {
		terms := extractTerms(doc, ngramMax, stop)
		counts := make(map[string]float64, len(terms))
		for _, t := range terms {
			counts[t]++
		}
		docTerms[i] = counts
		for t, c := range counts {
			totalCount[t] += c
			docFreq[t]++
		}
	}

	// 词表截断：按语料频次降序，并列时字典序升序
	terms := make([]string, 0, len(totalCount))
	for t := range totalCount {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if totalCount[terms[i]] != totalCount[terms[j]] {
			return totalCount[terms[i]] > totalCount[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}

	// 下标按字典序分配，保证可复现
	sort.Strings(terms)
	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	v.vocab = vocab

	// TF-IDF + L2 归一化
	n := float64(len(docs))
	out := make([]SparseVec, len(docs))
	for i, counts := range docTerms {
		vec := make(SparseVec)
		var norm float64
		for t, tf := range counts {
			idx, ok := vocab[t]
			if !ok {
				continue
			}
			idf := math.Log((1+n)/(1+float64(docFreq[t]))) + 1
			w := tf * idf
			vec[idx] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for idx, w := range vec {
				vec[idx] = w / norm
			}
		}
		out[i] = vec
	}
	return out
}

// extractTerms 分词、去停用词并生成 n-gram。
func extractTerms(doc string, ngramMax int, stop map[string]struct{}) []string {
	tokens := tokenRegex.FindAllString(strings.ToLower(doc), -1)

	kept := tokens[:0]
	for _, tok := range tokens {
		if _, ok := stop[tok]; ok {
			continue
		}
		kept = append(kept, tok)
	}

	terms := make([]string, 0, len(kept)*ngramMax)
	for n := 1; n <= ngramMax; n++ {
		for i := 0; i+n <= len(kept); i++ {
			terms = append(terms, strings.Join(kept[i:i+n], " "))
		}
	}
	return terms
}
