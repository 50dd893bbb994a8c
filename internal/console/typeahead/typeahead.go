// Package typeahead coalesces keystroke-driven searches.
//
// A search fires only after the input has been quiet for the configured delay.
// Each fired search gets the next sequence number and its own context; firing
// a newer search cancels the older one, and results are delivered only while
// their search is still the latest one fired.
package typeahead

import (
	"context"
	"sync"
	"time"
)

const DefaultDelay = 500 * time.Millisecond

type SearchFunc[T any] func(ctx context.Context, keyword string) ([]T, error)

type Result[T any] struct {
	Seq     uint64
	Keyword string
	Items   []T
	Err     error
}

type Searcher[T any] struct {
	delay   time.Duration
	search  SearchFunc[T]
	deliver func(Result[T])

	mu      sync.Mutex
	parent  context.Context
	timer   *time.Timer
	seq     uint64
	cancel  context.CancelFunc
	closed  bool
	pending sync.WaitGroup
}

func New[T any](ctx context.Context, delay time.Duration, search SearchFunc[T], deliver func(Result[T])) *Searcher[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Searcher[T]{parent: ctx, delay: delay, search: search, deliver: deliver}
}

// Type は入力のたびに呼ぶ。最後の入力から delay 経過で検索が走る
func (s *Searcher[T]) Type(keyword string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(keyword) })
}

func (s *Searcher[T]) fire(keyword string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.pending.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.pending.Done()
		items, err := s.search(ctx, keyword)

		s.mu.Lock()
		latest := seq == s.seq
		s.mu.Unlock()
		if !latest || ctx.Err() != nil {
			return
		}
		s.deliver(Result[T]{Seq: seq, Keyword: keyword, Items: items, Err: err})
	}()
}

// Latest は最後に発火した検索の番号
func (s *Searcher[T]) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Close は待機中の入力を捨て、実行中の検索を取り消して終了を待つ
func (s *Searcher[T]) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	s.mu.Unlock()
	s.pending.Wait()
}
