// Package recommender 是一个混合图书推荐引擎（协同过滤 + 内容相似）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 整代一致: 用户-物品矩阵与相似度矩阵同代构建、原子替换，绝无半新半旧
// - 永不空手: 协同/内容两个半边都为空时无条件落到热门兜底
package recommender

import "github.com/bibliotrack/recommender/pipeline"

// 轻量 facade：便于用户直接 import 根包使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
