package debounce

import "sync"

// Sequence 按 key 递增的请求序号
// 去抖只能折叠触发，挡不住乱序完成：每个在途请求发出前取号，
// 响应回来时序号已不是最新的就必须丢弃，保证慢的旧请求不会覆盖新结果。
type Sequence struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// NewSequence 创建序号发生器
func NewSequence() *Sequence {
	return &Sequence{latest: make(map[string]uint64)}
}

// Next 为 key 上的新请求取号；取号即作废该 key 上所有更早的在途请求
func (s *Sequence) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest[key]++
	return s.latest[key]
}

// IsCurrent 判断序号是否仍是 key 上最新发出的请求
func (s *Sequence) IsCurrent(key string, n uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.latest[key] == n
}
