package books

import (
	"github.com/gin-gonic/gin"

	"libadmin/internal/platform/httpx"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/book/all", h.List)
	r.POST("/book/search", h.Search)
	r.POST("/book/add", h.Create)
	r.GET("/book/:isbn", h.Get)
	r.PATCH("/book/:isbn", h.Update)
	r.DELETE("/book/:isbn", h.Delist)
}

// List godoc
// @Summary  List books
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    body body httpx.ListRequest[BookQuery] true "filters and page"
// @Success  200 {object} httpx.Envelope
// @Router   /book/all [post]
func (h *Handler) List(c *gin.Context) {
	var req httpx.ListRequest[BookQuery]
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid json")
		return
	}
	items, total, err := h.svc.List(c.Request.Context(), req.Query, httpx.NewPage(req.Page, req.Size))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, httpx.ListPayload[Book]{Items: items, Total: total})
}

func (h *Handler) Search(c *gin.Context) {
	var req httpx.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid json")
		return
	}
	items, err := h.svc.Search(c.Request.Context(), req.Keyword)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, httpx.SearchPayload[Book]{Items: items})
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, res)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "isbn, name, author, publisher, count are required")
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	c.Header("Location", "/api/book/"+res.ISBN)
	httpx.Created(c, res)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid json")
		return
	}
	res, err := h.svc.Update(c.Request.Context(), c.Param("isbn"), req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, res)
}

func (h *Handler) Delist(c *gin.Context) {
	if err := h.svc.Delist(c.Request.Context(), c.Param("isbn")); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.Message(c, "book delisted")
}
