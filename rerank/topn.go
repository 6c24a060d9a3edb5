package rerank

import (
	"context"

	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在合并/调权之后截取前 N 个候选。
//
// 使用场景：
//   - 混合召回合并去重后截断到请求的 top_n
//   - 控制推荐结果数量
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Fanout{...},     // 召回并合并
//	        &filter.FilterNode{...}, // 过滤
//	        &rerank.TopNNode{N: 10}, // 截取 Top 10
//	    },
//	}
type TopNNode struct {
	// N 要保留的候选数量（Top N）
	// N <= 0 时返回空列表（top_n=0 是合法请求，不是"不截断"）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.N <= 0 {
		return []*core.Candidate{}, nil
	}
	if len(candidates) <= n.N {
		return candidates, nil
	}
	return candidates[:n.N], nil
}
