package readers

import (
	"github.com/gin-gonic/gin"

	"libadmin/internal/platform/httpx"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/reader/all", h.List)
	r.POST("/reader/search", h.Search)
	r.POST("/reader/add", h.Create)
	r.GET("/reader/:id_card", h.Get)
	r.PATCH("/reader/:id_card", h.Update)
	r.DELETE("/reader/:id_card", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	var req httpx.ListRequest[ReaderQuery]
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid json")
		return
	}
	items, total, err := h.svc.List(c.Request.Context(), req.Query, httpx.NewPage(req.Page, req.Size))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, httpx.ListPayload[Reader]{Items: items, Total: total})
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
	httpx.OK(c, httpx.SearchPayload[Reader]{Items: items})
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("id_card"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, res)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateReaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "id_card and name are required")
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	c.Header("Location", "/api/reader/"+res.IDCard)
	httpx.Created(c, res)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateReaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid json")
		return
	}
	res, err := h.svc.Update(c.Request.Context(), c.Param("id_card"), req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, res)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id_card")); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.Message(c, "reader removed")
}
