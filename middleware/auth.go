package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

const (
	// ContextViewerKey stores the signed-in *models.User in Gin context.
	ContextViewerKey = "viewer"
	// ContextTokenKey stores the raw session token so logout can revoke it.
	ContextTokenKey = "token"
	// SessionCookie carries the JWT for browser sessions.
	SessionCookie = "yatube_session"
	// LoginPath is where anonymous users are sent for protected pages.
	LoginPath = "/auth/login/"
)

// Identify resolves the session token from the cookie or a Bearer header and
// loads the user. Missing, invalid, revoked or orphaned tokens leave the request anonymous.
func Identify(db *gorm.DB, secret string, blacklist *utils.TokenBlacklist) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			token, _ = ctx.Cookie(SessionCookie)
		}
		if token == "" {
			ctx.Next()
			return
		}
		if blacklist != nil && blacklist.IsRevoked(ctx.Request.Context(), token) {
			ctx.Next()
			return
		}
		claims, err := utils.ParseToken(secret, token)
		if err != nil {
			ctx.Next()
			return
		}
		var user models.User
		if err := db.WithContext(ctx.Request.Context()).First(&user, claims.UserID).Error; err != nil {
			ctx.Next()
			return
		}
		ctx.Set(ContextViewerKey, &user)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

// CurrentUser returns the signed-in user, or nil for anonymous requests.
func CurrentUser(ctx *gin.Context) *models.User {
	if v, ok := ctx.Get(ContextViewerKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// LoginRequired redirects anonymous requests to the login page, remembering where they were going.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if CurrentUser(ctx) == nil {
			ctx.Redirect(http.StatusFound, LoginURL(ctx.Request.URL.RequestURI()))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// LoginURL builds the login address with a next parameter.
func LoginURL(next string) string {
	return LoginPath + "?next=" + url.QueryEscape(next)
}

func bearerToken(ctx *gin.Context) string {
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
