package bundle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache 持有当前一代矩阵束并负责唯一的重建路径。
//
// 状态机（单 key）：MISSING -> FRESH（构建成功）-> STALE（TTL 过期）-> FRESH（重建）。
// 没有 PARTIAL：写入只发生在整代构建成功之后，原子替换指针，从不中途可见。
// 构建失败保持旧状态不变，错误交给调用方降级（热门兜底），下次调用懒重试。
//
// 并发：多请求撞上过期时用 singleflight 合并成一次重建；
// 这是去重优化而非正确性要求，重建幂等。
type Cache struct {
	builder *Builder
	ttl     time.Duration

	mu     sync.RWMutex
	bundle *Bundle

	group    singleflight.Group
	rebuilds atomic.Int64
}

// NewCache 创建矩阵束缓存；ttl <= 0 时取 30 分钟。
func NewCache(builder *Builder, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Cache{builder: builder, ttl: ttl}
}

// Get 返回新鲜的矩阵束，必要时重建。
// 调用方取消请求后，已经开始的重建仍会完成并写入缓存，留给下一个调用方。
func (c *Cache) Get(ctx context.Context) (*Bundle, error) {
	if b := c.fresh(); b != nil {
		return b, nil
	}

	v, err, _ := c.group.Do("bundle", func() (interface{}, error) {
		// 双重检查：排队期间可能已有并发重建完成
		if b := c.fresh(); b != nil {
			return b, nil
		}
		// 构建一旦开始就做完（fire-and-forget），不跟随单个请求的取消
		b, err := c.builder.Build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.bundle = b
		c.mu.Unlock()
		c.rebuilds.Add(1)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bundle), nil
}

// Refresh 强制立即重建（外部训练任务触发），不等待 TTL。
func (c *Cache) Refresh(ctx context.Context) (*Bundle, error) {
	c.Invalidate()
	return c.Get(ctx)
}

// Invalidate 显式失效当前一代，下次 Get 触发整代重建。
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.bundle = nil
	c.mu.Unlock()
}

// Rebuilds 返回累计重建次数（测试/观测用）。
func (c *Cache) Rebuilds() int64 { return c.rebuilds.Load() }

// fresh 返回仍在 TTL 内的矩阵束，过期或缺失返回 nil。
func (c *Cache) fresh() *Bundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.bundle == nil {
		return nil
	}
	if time.Since(c.bundle.BuiltAt) >= c.ttl {
		return nil
	}
	return c.bundle
}
