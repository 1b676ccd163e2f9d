package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/storage"
	"github.com/cppla/yatube/utils"
)

// APIController is the read-only JSON view of posts.
type APIController struct {
	feed   *services.Feed
	posts  *services.Posts
	images storage.ImageStore
}

func NewAPIController(feed *services.Feed, posts *services.Posts, images storage.ImageStore) *APIController {
	return &APIController{feed: feed, posts: posts, images: images}
}

type postResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Image   string    `json:"image,omitempty"`
	PubDate time.Time `json:"pub_date"`
	Group   string    `json:"group,omitempty"`
}

func (a *APIController) serialize(p models.Post) postResponse {
	out := postResponse{
		ID:      p.ID,
		Text:    p.Text,
		Author:  p.Author.Username,
		Image:   a.images.URL(p.Image),
		PubDate: p.CreatedAt,
	}
	if p.Group != nil {
		out.Group = p.Group.Slug
	}
	return out
}

// ListPosts returns one page of posts, newest first.
func (a *APIController) ListPosts(ctx *gin.Context) {
	page, err := a.feed.Latest(ctx.Request.Context(), services.ParsePageNumber(ctx.Query("page")))
	if err != nil {
		utils.Sugar.Errorf("api list posts: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to list posts")
		return
	}
	results := make([]postResponse, 0, len(page.Items))
	for _, p := range page.Items {
		results = append(results, a.serialize(p))
	}
	utils.Success(ctx, gin.H{
		"count":     page.Total,
		"page":      page.Number,
		"num_pages": page.NumPages,
		"results":   results,
	})
}

// GetPost returns a single post by id.
func (a *APIController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "post not found")
		return
	}
	post, err := a.posts.ByID(ctx.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "post not found")
		return
	}
	if err != nil {
		utils.Sugar.Errorf("api get post %d: %v", id, err)
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to get post")
		return
	}
	utils.Success(ctx, a.serialize(*post))
}
