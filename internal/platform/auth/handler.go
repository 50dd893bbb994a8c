package auth

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"libadmin/internal/platform/httpx"
)

type AuthHandler struct{ svc AuthService }

// public: /auth/login
// protected: /auth/check, /auth/info, /auth/register
func RegisterRoutes(public, protected gin.IRoutes, svc AuthService) {
	h := &AuthHandler{svc: svc}
	public.POST("/auth/login", h.Login)

	protected.GET("/auth/check", h.Check)
	protected.GET("/auth/info", h.Info)
	protected.POST("/auth/register", RequireRole(RoleAdmin), h.Register)
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "username and password are required")
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, ErrBadCredential) {
			httpx.Fail(c, err)
			return
		}
		log.Printf("[WARN] login failed: %s", req.Username)
		// 401 だとフロントがログイン画面へリダイレクトしてしまうので 400 で返す
		httpx.Fail(c, httpx.ErrInvalid("用户名或密码错误"))
		return
	}

	httpx.OK(c, LoginResponse{Token: token})
}

// トークンが有効なら 200。無効なら RequireAuth が 401 を返す
func (h *AuthHandler) Check(c *gin.Context) {
	httpx.OK(c, gin.H{"username": c.GetString(CtxUserIDKey)})
}

func (h *AuthHandler) Info(c *gin.Context) {
	info, err := h.svc.Info(c.Request.Context(), c.GetString(CtxUserIDKey))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, info)
}

type RegisterRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Role     *string `json:"role,omitempty"` // 未指定なら librarian
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request")
		return
	}

	role := RoleLibrarian
	if req.Role != nil && *req.Role != "" {
		role = *req.Role
	}

	if err := h.svc.Register(c.Request.Context(), req.Username, req.Password, role); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			httpx.Fail(c, httpx.ErrConflict("username already exists"))
			return
		}
		httpx.Fail(c, err)
		return
	}

	httpx.Created(c, gin.H{"username": req.Username, "role": role})
}
