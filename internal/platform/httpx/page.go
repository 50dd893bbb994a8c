package httpx

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// 一覧系リクエスト共通 { query, page, size }
type ListRequest[Q any] struct {
	Query Q   `json:"query"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

type SearchRequest struct {
	Keyword string `json:"keyword"`
}

type Page struct {
	Page int
	Size int
}

func NewPage(page, size int) Page {
	if page <= 0 {
		page = DefaultPage
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Page{Page: page, Size: size}
}

func (p Page) Limit() uint  { return uint(p.Size) }
func (p Page) Offset() uint { return uint((p.Page - 1) * p.Size) }
