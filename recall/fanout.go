package recall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/pipeline"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，按源顺序拼接结果。
//
// 合并语义：结果严格按 Sources 的声明顺序拼接（并发只影响执行，不影响顺序），
// Dedup 开启时按合成键去重、先出现者胜。混合推荐依赖这一点：
// 协同半边排在内容半边之前，同键冲突时协同胜出。
//
// 单个召回源超时或出错时按空结果处理，不中断其他召回源。
type Fanout struct {
	Sources []Source
	Dedup   bool

	// Timeout 每个召回源的超时时间；<= 0 不限制
	Timeout time.Duration
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 按源下标收集，保证拼接顺序与声明顺序一致
	results := make([][]*core.Candidate, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, src := range n.Sources {
		idx, s := i, src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}
			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 召回源失败降级为空结果，不中断其他源
				return nil
			}
			results[idx] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []*core.Candidate
	for _, items := range results {
		all = append(all, items...)
	}
	if !n.Dedup {
		return all, nil
	}

	// 按键去重，先出现者胜；后出现者的 labels 并入胜者便于解释
	seen := make(map[string]*core.Candidate, len(all))
	out := make([]*core.Candidate, 0, len(all))
	for _, c := range all {
		if c == nil {
			continue
		}
		if winner, ok := seen[c.Key]; ok {
			for k, v := range c.Labels {
				winner.PutLabel(k, v)
			}
			continue
		}
		seen[c.Key] = c
		out = append(out, c)
	}
	return out, nil
}
