package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

var untrackedPrefixes = []string{"/api/", "/media/", "/static/", "/metrics", "/health", "/auth/"}

// PageViewRecorder counts successful page views per day and path.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		path := c.Request.URL.Path
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}

		now := time.Now()

		// Atomic upsert to avoid duplicate key errors under concurrency
		err := db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "day"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"views":      gorm.Expr("page_views.views + 1"),
				"updated_at": now,
			}),
		}).Create(&models.PageView{Day: models.Today(now), Path: path, Views: 1}).Error
		if err != nil {
			utils.Sugar.Warnf("record page view path=%s err=%v", path, err)
		}
	}
}
