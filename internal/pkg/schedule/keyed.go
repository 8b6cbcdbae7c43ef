package schedule

import (
	"sync"
	"time"
)

// Keyed 按 key 去抖的延迟任务调度器：同一 key 重复触发时取消并重置计时，
// 静默期结束后只执行最后一次注册的任务。不同 key 之间互不影响。
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
	stopped bool
}

type entry struct {
	timer       *time.Timer
	scheduledAt time.Time
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[string]*entry)}
}

// Schedule 注册（或重置）key 上的待执行任务
func (s *Keyed) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if old, ok := s.entries[key]; ok {
		old.timer.Stop()
	}

	e := &entry{scheduledAt: time.Now()}
	e.timer = time.AfterFunc(delay, func() {
		s.remove(key, e)
		fn()
	})
	s.entries[key] = e
}

// Cancel 撤销 key 上的待执行任务
func (s *Keyed) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.timer.Stop()
		delete(s.entries, key)
	}
}

// remove 任务触发后移除自己的条目；条目已被新任务顶替时不动
func (s *Keyed) remove(key string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.entries[key]; ok && cur == e {
		delete(s.entries, key)
	}
}

// Sweep 清理注册后超过 maxIdle 仍未触发的条目，返回清理数量。
// 正常路径下条目在触发时自删，这里兜底防止 map 无界增长。
func (s *Keyed) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, e := range s.entries {
		if time.Since(e.scheduledAt) > maxIdle {
			e.timer.Stop()
			delete(s.entries, key)
			n++
		}
	}
	return n
}

// Len 当前待执行条目数
func (s *Keyed) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop 停止全部计时器并拒绝后续注册，进程退出时调用
func (s *Keyed) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, key)
	}
}
