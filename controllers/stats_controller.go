package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// StatsController provides site statistics such as counts and today's page views.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the site.
func (s *StatsController) GetStats(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())
	counts := gin.H{}
	for key, model := range map[string]interface{}{
		"user_count":    &models.User{},
		"post_count":    &models.Post{},
		"comment_count": &models.Comment{},
		"group_count":   &models.Group{},
		"follow_count":  &models.Follow{},
	} {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			// Fallback to 0 instead of failing the whole endpoint
			utils.Sugar.Warnf("stats count %s failed: %v", key, err)
		}
		counts[key] = n
	}

	var views int64
	if err := db.Model(&models.PageView{}).
		Where("day = ?", models.Today(time.Now())).
		Select("COALESCE(SUM(views),0)").
		Scan(&views).Error; err != nil {
		views = 0
	}
	counts["daily_views"] = views

	type pathViews struct {
		Path  string `json:"path"`
		Views int64  `json:"views"`
	}
	top := []pathViews{}
	if err := db.Model(&models.PageView{}).
		Select("path, SUM(views) AS views").
		Group("path").
		Order("views DESC").
		Limit(10).
		Scan(&top).Error; err != nil {
		top = []pathViews{}
	}
	counts["top_paths"] = top

	utils.Success(ctx, counts)
}
