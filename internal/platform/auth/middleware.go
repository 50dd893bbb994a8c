package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"libadmin/internal/platform/httpx"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

// Authorization ヘッダからトークン文字列を取り出す。
// 旧フロントは "Bearer " を付けずに生トークンを送っていたので両方受ける。
func tokenFromHeader(h string) string {
	h = strings.TrimSpace(h)
	parts := strings.SplitN(h, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		h = strings.TrimSpace(parts[1])
	} else if strings.EqualFold(h, "Bearer") {
		h = ""
	}
	// 未ログイン時のフロントは "null" を送ってくる
	if h == "null" || h == "undefined" {
		return ""
	}
	return h
}

// RequireAuth: Authorization ヘッダのトークンを検証して context に sub/role を詰める
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFromHeader(c.GetHeader("Authorization"))
		if tokenStr == "" {
			httpx.Abort(c, httpx.ErrUnauthenticated("missing token"))
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || token == nil || !token.Valid {
			httpx.Abort(c, httpx.ErrUnauthenticated("invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			httpx.Abort(c, httpx.ErrUnauthenticated("invalid claims"))
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			httpx.Abort(c, httpx.ErrUnauthenticated("invalid sub"))
			return
		}

		role, _ := claims["role"].(string)

		c.Set(CtxUserIDKey, sub)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

// RequireRole: 例) admin のみ許可したい時に追加
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if role == "" {
			httpx.Abort(c, httpx.ErrForbidden("missing role"))
			return
		}
		if _, allowed := roleSet[role]; !allowed {
			httpx.Abort(c, httpx.ErrForbidden("forbidden"))
			return
		}
		c.Next()
	}
}
