package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/bibliotrack/recommender/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是候选规则 DSL 解释器，使用 CEL (Common Expression Language) 实现。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "content" / item.type == "user_book"
//   - 数值：item.score > 0.5 / item.price <= 100.0
//   - 逻辑：item.genre == "fantasy" && item.score > 0.3
//   - 包含：label.recall_source.contains("collaborative")
//
// 示例：
//   - `item.price <= 200.0` → 价格上限规则
//   - `item.genre != "horror"` → 按请求排除某体裁
//   - `label.recall_source.contains("content") && item.score > 0.2`
type Eval struct {
	cand  *core.Candidate
	attrs core.Attrs
	typ   core.ItemType
	rctx  *core.RecommendContext
	env   *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。
// attrs/typ 是候选解析出的物品属性，供表达式按 item.genre / item.price 访问。
func NewEval(cand *core.Candidate, attrs core.Attrs, typ core.ItemType, rctx *core.RecommendContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{
		cand:  cand,
		attrs: attrs,
		typ:   typ,
		rctx:  rctx,
		env:   env,
	}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。
// 空表达式视为 true（不过滤）。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	if e.env == nil {
		return false, fmt.Errorf("cel env not initialized")
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		// 不存在的 key 在 CEL 中访问会报错；用 label.key != null 检查存在性
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}

	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]interface{} {
	item := map[string]interface{}{
		"key":         e.cand.Key,
		"score":       e.cand.Score,
		"type":        string(e.typ),
		"title":       e.attrs.Title,
		"author":      e.attrs.Author,
		"genre":       e.attrs.Genre,
		"category":    e.attrs.Category,
		"description": e.attrs.Description,
		"rating":      e.attrs.Rating,
		"price":       e.attrs.Price,
	}

	// label.recall_source 可以直接访问 Label 的 Value
	labelAccessor := make(map[string]interface{}, len(e.cand.Labels))
	for k, v := range e.cand.Labels {
		labelAccessor[k] = v.Value
	}

	rctx := map[string]interface{}{}
	if e.rctx != nil {
		rctx["user_id"] = e.rctx.UserID
		rctx["seed_item_key"] = e.rctx.SeedItemKey
		rctx["scene"] = e.rctx.Scene
		rctx["params"] = e.rctx.Params
	}

	return map[string]interface{}{
		"item":  item,
		"label": labelAccessor,
		"rctx":  rctx,
	}
}
