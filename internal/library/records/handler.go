package records

import (
	"github.com/gin-gonic/gin"

	"libadmin/internal/platform/httpx"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/record/all", h.List)
	r.POST("/record", h.Borrow)
	r.GET("/record/:uuid", h.Get)
	// 返却
	r.DELETE("/record/:uuid", h.Return)
	r.POST("/punishment", h.Pay)
}

// List godoc
// @Summary  List borrowing records
// @Tags     records
// @Accept   json
// @Produce  json
// @Param    body body httpx.ListRequest[RecordQuery] true "filters and page"
// @Success  200 {object} httpx.Envelope
// @Router   /record/all [post]
func (h *Handler) List(c *gin.Context) {
	var req httpx.ListRequest[RecordQuery]
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid json")
		return
	}
	items, total, err := h.svc.List(c.Request.Context(), req.Query, httpx.NewPage(req.Page, req.Size))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, httpx.ListPayload[Record]{Items: items, Total: total})
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, res)
}

// Borrow godoc
// @Summary  Register a borrowing
// @Tags     records
// @Accept   json
// @Produce  json
// @Param    body body CreateRecordRequest true "reader, book and return date"
// @Success  201 {object} httpx.Envelope
// @Failure  409 {object} httpx.Envelope
// @Router   /record [post]
func (h *Handler) Borrow(c *gin.Context) {
	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "id_card, isbn, return_date are required")
		return
	}
	res, err := h.svc.Borrow(c.Request.Context(), req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	c.Header("Location", "/api/record/"+res.UUID)
	httpx.Created(c, res)
}

func (h *Handler) Return(c *gin.Context) {
	if err := h.svc.Return(c.Request.Context(), c.Param("uuid")); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.Message(c, "book returned")
}

func (h *Handler) Pay(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "amount and uuid are required")
		return
	}
	res, err := h.svc.Pay(c.Request.Context(), req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, res)
}
