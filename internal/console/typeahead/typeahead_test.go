package typeahead

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	keywords []string
	results  []Result[string]
}

func (r *recorder) search(ctx context.Context, kw string) ([]string, error) {
	r.mu.Lock()
	r.keywords = append(r.keywords, kw)
	r.mu.Unlock()
	return []string{kw + "-1"}, nil
}

func (r *recorder) deliver(res Result[string]) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

func (r *recorder) snapshot() ([]string, []Result[string]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keywords...), append([]Result[string](nil), r.results...)
}

func TestType_CoalescesBurst(t *testing.T) {
	rec := &recorder{}
	s := New[string](context.Background(), 30*time.Millisecond, rec.search, rec.deliver)
	defer s.Close()

	for _, kw := range []string{"g", "go", "gol", "gola"} {
		s.Type(kw)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		_, res := rec.snapshot()
		return len(res) == 1
	}, time.Second, 5*time.Millisecond)

	kws, res := rec.snapshot()
	assert.Equal(t, []string{"gola"}, kws)
	assert.Equal(t, uint64(1), res[0].Seq)
	assert.Equal(t, []string{"gola-1"}, res[0].Items)
}

func TestFire_LatestWins(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var got []Result[string]
	search := func(ctx context.Context, kw string) ([]string, error) {
		if kw == "slow" {
			select {
			case <-release:
			case <-ctx.Done():
			}
		}
		return []string{kw}, nil
	}
	deliver := func(r Result[string]) {
		mu.Lock()
		got = append(got, r)
		mu.Unlock()
	}
	s := New[string](context.Background(), 10*time.Millisecond, search, deliver)

	s.Type("slow")
	require.Eventually(t, func() bool { return s.Latest() == 1 }, time.Second, 2*time.Millisecond)
	s.Type("fast")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 2*time.Millisecond)
	close(release)
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "fast", got[0].Keyword)
	assert.Equal(t, uint64(2), got[0].Seq)
}

func TestClose_DropsPendingInput(t *testing.T) {
	rec := &recorder{}
	s := New[string](context.Background(), 20*time.Millisecond, rec.search, rec.deliver)
	s.Type("abc")
	s.Close()
	time.Sleep(50 * time.Millisecond)

	kws, res := rec.snapshot()
	assert.Empty(t, kws)
	assert.Empty(t, res)
	s.Type("ignored")
}
