package httpx

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 全レスポンス共通の封筒 { "data": ..., "message": ... }
type Envelope struct {
	Data    any    `json:"data"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type ListPayload[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

type SearchPayload[T any] struct {
	Items []T `json:"items"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Data: data})
}

// 構造化データを返さず人向けのメッセージだけ返すエンドポイント用
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Envelope{Message: msg})
}

func Fail(c *gin.Context, err error) {
	status := ToHTTPStatus(err)
	body := Envelope{Code: CodeInternal, Message: err.Error()}
	var api *APIError
	if errors.As(err, &api) {
		body.Code, body.Message = api.Code, api.Message
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		body.Message = "internal error"
	}
	c.JSON(status, body)
}

func Abort(c *gin.Context, err error) {
	Fail(c, err)
	c.Abort()
}

func BadRequest(c *gin.Context, msg string) {
	Fail(c, ErrInvalid(msg))
}
