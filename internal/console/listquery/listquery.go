// Package listquery encodes list-screen filters and pagination in the address
// query so that the same address always reproduces the same view.
package listquery

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultPage = 1
	DefaultSize = 10

	// 日付範囲は1つの値に "start__end" で詰める
	RangeSeparator = "__"
	RangeLayout    = "2006-01-02T15:04:05.000Z"
)

type Screen struct {
	Path      string
	Keys      []string
	RangeKeys []string
}

var (
	Books   = Screen{Path: "/books", Keys: []string{"name", "isbn", "author", "publisher"}}
	Readers = Screen{Path: "/readers", Keys: []string{"name", "id_card", "phone"}}
	Records = Screen{
		Path:      "/borrowing_records",
		Keys:      []string{"uuid", "book", "reader", "return_date", "created_at", "status"},
		RangeKeys: []string{"return_date", "created_at"},
	}
)

// State は住所から読み出した画面状態
type State struct {
	// フォームの値（認識するキーは全部、無ければ ""）
	Form map[string]string
	Page int
	Size int
	// 取得に使う条件（空でないキーだけ。範囲は []string）
	Filters map[string]any
}

func (s Screen) isRange(key string) bool {
	for _, k := range s.RangeKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (s Screen) Load(q url.Values) State {
	st := State{
		Form:    make(map[string]string, len(s.Keys)),
		Page:    positive(q.Get("page"), DefaultPage),
		Size:    positive(q.Get("size"), DefaultSize),
		Filters: map[string]any{},
	}
	for _, k := range s.Keys {
		v := q.Get(k)
		st.Form[k] = v
		if v == "" {
			continue
		}
		if s.isRange(k) {
			st.Filters[k] = strings.Split(v, RangeSeparator)
		} else {
			st.Filters[k] = v
		}
	}
	return st
}

// Submit はフィルタを上書きして1ページ目に戻す。size は維持
func Submit(current url.Values, values map[string]string) url.Values {
	next := clone(current)
	for k, v := range values {
		next.Set(k, v)
	}
	next.Set("page", "1")
	next.Set("size", strconv.Itoa(positive(current.Get("size"), DefaultSize)))
	return next
}

func Paginate(current url.Values, page, size int) url.Values {
	next := clone(current)
	next.Set("page", strconv.Itoa(page))
	next.Set("size", strconv.Itoa(size))
	return next
}

// Clear は page と size だけ残す
func Clear(current url.Values) url.Values {
	next := url.Values{}
	for _, k := range []string{"page", "size"} {
		if v := current.Get(k); v != "" {
			next.Set(k, v)
		}
	}
	return next
}

func EncodeRange(start, end time.Time) string {
	return start.UTC().Format(RangeLayout) + RangeSeparator + end.UTC().Format(RangeLayout)
}

func DecodeRange(v string) (time.Time, time.Time, error) {
	parts := strings.Split(v, RangeSeparator)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, errors.Errorf("range must be start%send: %q", RangeSeparator, v)
	}
	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(err, "range start")
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(err, "range end")
	}
	return start, end, nil
}

func positive(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func clone(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
