package debounce

import (
	"sync"
	"time"
)

// Coordinator 去抖协调器
// 同一 key 上的连续触发只保留最后一次：Schedule 会取消该 key 上尚未触发的动作
// 并重新计时，延迟期满后恰好执行一次最后注册的动作。
type Coordinator struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewCoordinator 创建去抖协调器
func NewCoordinator() *Coordinator {
	return &Coordinator{timers: make(map[string]*time.Timer)}
}

// Schedule 注册 key 上的延迟动作，覆盖之前未触发的注册
func (c *Coordinator) Schedule(key string, delay time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}

	if prev, ok := c.timers[key]; ok {
		prev.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		c.mu.Lock()
		// Stop 来不及拦截已并发触发的回调时，靠这里的身份比对兜底：
		// 只有仍登记在册的计时器才允许执行。
		current := c.timers[key] == t && !c.stopped
		if current {
			delete(c.timers, key)
		}
		c.mu.Unlock()

		if current {
			fn()
		}
	})
	c.timers[key] = t
}

// Cancel 取消 key 上尚未触发的动作（不执行）
func (c *Coordinator) Cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[key]; ok {
		t.Stop()
		delete(c.timers, key)
	}
}

// Stop 取消所有未触发的动作并拒绝后续注册（退出时调用）
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	for key, t := range c.timers {
		t.Stop()
		delete(c.timers, key)
	}
}
