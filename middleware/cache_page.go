package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/utils"
)

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CachePage serves successful GET responses from cache for ttl. Entries expire
// on their own; writes elsewhere do not invalidate them. The key includes the
// viewer so personalised navigation is never shared between users.
func CachePage(cache utils.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet || ttl <= 0 {
			ctx.Next()
			return
		}
		key := pageCacheKey(ctx)
		if body, ok := cache.Get(ctx.Request.Context(), key); ok {
			utils.PageCacheLookups.WithLabelValues("hit").Inc()
			ctx.Data(http.StatusOK, "text/html; charset=utf-8", body)
			ctx.Abort()
			return
		}
		utils.PageCacheLookups.WithLabelValues("miss").Inc()

		w := &capturingWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = w
		ctx.Next()
		ctx.Writer = w.ResponseWriter

		if w.Status() != http.StatusOK || w.body.Len() == 0 {
			return
		}
		if err := cache.Set(ctx.Request.Context(), key, w.body.Bytes(), ttl); err != nil {
			utils.Sugar.Warnf("page cache set failed key=%s err=%v", key, err)
		}
	}
}

func pageCacheKey(ctx *gin.Context) string {
	var viewerID uint
	if u := CurrentUser(ctx); u != nil {
		viewerID = u.ID
	}
	return fmt.Sprintf("page:%s?%s:u%d", ctx.Request.URL.Path, ctx.Request.URL.RawQuery, viewerID)
}
