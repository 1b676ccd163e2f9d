package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/storage"
	"github.com/cppla/yatube/views"
)

// PostController serves the feeds and the post, comment and follow pages.
type PostController struct {
	feed          *services.Feed
	graph         *services.FollowGraph
	posts         *services.Posts
	comments      *services.Comments
	groups        *services.Groups
	maxImageBytes int64
}

// NewPostController creates a new PostController instance.
func NewPostController(feed *services.Feed, graph *services.FollowGraph, posts *services.Posts,
	comments *services.Comments, groups *services.Groups, maxImageBytes int64) *PostController {
	return &PostController{
		feed:          feed,
		graph:         graph,
		posts:         posts,
		comments:      comments,
		groups:        groups,
		maxImageBytes: maxImageBytes,
	}
}

func pageNumber(ctx *gin.Context) int {
	return services.ParsePageNumber(ctx.Query("page"))
}

// Index lists every post.
func (p *PostController) Index(ctx *gin.Context) {
	view, err := p.feed.Index(ctx.Request.Context(), pageNumber(ctx))
	if err != nil {
		handleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "index.html", "Latest posts", gin.H{"view": view})
}

// Group lists the posts of one group.
func (p *PostController) Group(ctx *gin.Context) {
	view, err := p.feed.Group(ctx.Request.Context(), ctx.Param("slug"), pageNumber(ctx))
	if err != nil {
		handleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "group.html", view.Group.Title, gin.H{"view": view})
}

// Profile lists one author's posts.
func (p *PostController) Profile(ctx *gin.Context) {
	viewer := middleware.CurrentUser(ctx)
	view, err := p.feed.Profile(ctx.Request.Context(), viewer, ctx.Param("username"), pageNumber(ctx))
	if err != nil {
		handleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "profile.html", view.Author.DisplayName(), gin.H{"view": view})
}

// FollowIndex lists posts by followed authors.
func (p *PostController) FollowIndex(ctx *gin.Context) {
	view, err := p.feed.Following(ctx.Request.Context(), middleware.CurrentUser(ctx), pageNumber(ctx))
	if err != nil {
		handleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "follow.html", "Following", gin.H{"view": view})
}

// PostView shows a post with its comments.
func (p *PostController) PostView(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("post_id"))
	if !ok {
		RenderError(ctx, http.StatusNotFound)
		return
	}
	view, err := p.feed.Post(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("username"), id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "post.html", view.Post.Excerpt(), gin.H{"view": view})
}

// NewPost shows and handles the create form.
func (p *PostController) NewPost(ctx *gin.Context) {
	if ctx.Request.Method == http.MethodGet {
		p.renderPostForm(ctx, http.StatusOK, postFormView{}, nil, nil)
		return
	}

	var form postForm
	fieldErrs := bindForm(ctx, &form)
	upload, uploadErr := p.readUpload(ctx)
	if uploadErr != "" {
		fieldErrs = withField(fieldErrs, "image", uploadErr)
	}
	if len(fieldErrs) > 0 {
		p.renderPostForm(ctx, http.StatusOK, form.view(), fieldErrs, nil)
		return
	}

	_, err := p.posts.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), services.PostInput{
		Text:    form.Text,
		GroupID: form.groupID(),
		Image:   upload,
	})
	if fields, ok := validationFields(err); ok {
		p.renderPostForm(ctx, http.StatusOK, form.view(), fields, nil)
		return
	}
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// EditPost shows and handles the edit form. Non-owners are sent to the post page.
func (p *PostController) EditPost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	viewer := middleware.CurrentUser(ctx)
	if !services.CanMutate(viewer, post.AuthorID) {
		ctx.Redirect(http.StatusFound, views.PostURL(*post))
		return
	}

	if ctx.Request.Method == http.MethodGet {
		form := postFormView{Text: post.Text}
		if post.GroupID != nil {
			form.Group = *post.GroupID
		}
		p.renderPostForm(ctx, http.StatusOK, form, nil, post)
		return
	}

	var form postForm
	fieldErrs := bindForm(ctx, &form)
	upload, uploadErr := p.readUpload(ctx)
	if uploadErr != "" {
		fieldErrs = withField(fieldErrs, "image", uploadErr)
	}
	if len(fieldErrs) > 0 {
		p.renderPostForm(ctx, http.StatusOK, form.view(), fieldErrs, post)
		return
	}

	err := p.posts.Update(ctx.Request.Context(), viewer, post, services.PostInput{
		Text:       form.Text,
		GroupID:    form.groupID(),
		Image:      upload,
		ClearImage: form.ImageClear != "",
	})
	if fields, ok := validationFields(err); ok {
		p.renderPostForm(ctx, http.StatusOK, form.view(), fields, post)
		return
	}
	if errors.Is(err, services.ErrForbidden) {
		ctx.Redirect(http.StatusFound, views.PostURL(*post))
		return
	}
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, views.PostURL(*post))
}

// DeletePost removes a post and returns the author to where they came from.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	postURL := views.PostURL(*post)
	err := p.posts.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), post)
	if errors.Is(err, services.ErrForbidden) {
		ctx.Redirect(http.StatusFound, postURL)
		return
	}
	if err != nil {
		handleError(ctx, err)
		return
	}
	target := safeRedirectTarget(refererPath(ctx), "")
	if target == "" || target == postURL || target == postURL+"edit/" {
		target = profileURL(post.Author.Username)
	}
	ctx.Redirect(http.StatusFound, target)
}

// AddComment attaches a comment to the post in the URL. Invalid input just returns to the post.
func (p *PostController) AddComment(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	var form commentForm
	if errs := bindForm(ctx, &form); len(errs) == 0 {
		_, err := p.comments.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), post, form.Text)
		if _, invalid := validationFields(err); err != nil && !invalid {
			handleError(ctx, err)
			return
		}
	}
	ctx.Redirect(http.StatusFound, views.PostURL(*post))
}

// EditComment lets a comment's author rewrite it.
func (p *PostController) EditComment(ctx *gin.Context) {
	post, comment, ok := p.loadComment(ctx)
	if !ok {
		return
	}
	postURL := views.PostURL(*post)
	viewer := middleware.CurrentUser(ctx)
	if !services.CanMutate(viewer, comment.AuthorID) {
		ctx.Redirect(http.StatusFound, postURL)
		return
	}

	if ctx.Request.Method == http.MethodGet {
		render(ctx, http.StatusOK, "comment_form.html", "Edit comment", gin.H{
			"form": commentForm{Text: comment.Text},
			"back": postURL,
		})
		return
	}

	var form commentForm
	fieldErrs := bindForm(ctx, &form)
	if len(fieldErrs) == 0 {
		err := p.comments.Update(ctx.Request.Context(), viewer, comment, form.Text)
		if fields, invalid := validationFields(err); invalid {
			fieldErrs = fields
		} else if err != nil {
			handleError(ctx, err)
			return
		}
	}
	if len(fieldErrs) > 0 {
		render(ctx, http.StatusOK, "comment_form.html", "Edit comment", gin.H{
			"form":   form,
			"errors": fieldErrs,
			"back":   postURL,
		})
		return
	}
	ctx.Redirect(http.StatusFound, postURL)
}

func (p *PostController) DeleteComment(ctx *gin.Context) {
	post, comment, ok := p.loadComment(ctx)
	if !ok {
		return
	}
	err := p.comments.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), comment)
	if err != nil && !errors.Is(err, services.ErrForbidden) {
		handleError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, views.PostURL(*post))
}

// Follow subscribes the viewer to the author in the URL.
func (p *PostController) Follow(ctx *gin.Context) {
	p.changeFollow(ctx, p.graph.Follow)
}

// Unfollow removes the subscription.
func (p *PostController) Unfollow(ctx *gin.Context) {
	p.changeFollow(ctx, p.graph.Unfollow)
}

func (p *PostController) changeFollow(ctx *gin.Context, change func(context.Context, *models.User, string) error) {
	username := ctx.Param("username")
	if err := change(ctx.Request.Context(), middleware.CurrentUser(ctx), username); err != nil {
		handleError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, safeRedirectTarget(refererPath(ctx), profileURL(username)))
}

func (p *PostController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	id, ok := parseID(ctx.Param("post_id"))
	if !ok {
		RenderError(ctx, http.StatusNotFound)
		return nil, false
	}
	post, err := p.posts.Get(ctx.Request.Context(), ctx.Param("username"), id)
	if err != nil {
		handleError(ctx, err)
		return nil, false
	}
	return post, true
}

func (p *PostController) loadComment(ctx *gin.Context) (*models.Post, *models.Comment, bool) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return nil, nil, false
	}
	id, ok := parseID(ctx.Param("comment_id"))
	if !ok {
		RenderError(ctx, http.StatusNotFound)
		return nil, nil, false
	}
	comment, err := p.comments.Get(ctx.Request.Context(), post, id)
	if err != nil {
		handleError(ctx, err)
		return nil, nil, false
	}
	return post, comment, true
}

func (p *PostController) renderPostForm(ctx *gin.Context, status int, form postFormView, fieldErrs map[string]string, editing *models.Post) {
	groups, err := p.groups.List(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	title := "New post"
	data := gin.H{"form": form, "errors": fieldErrs, "groups": groups, "editing": editing != nil}
	if editing != nil {
		title = "Edit post"
		data["image"] = editing.Image
	}
	render(ctx, status, "post_form.html", title, data)
}

// readUpload returns the optional image and a field message when it cannot be read.
// At most one byte over the limit is read so oversize files fail validation without buffering them whole.
func (p *PostController) readUpload(ctx *gin.Context) (*storage.Upload, string) {
	fh, err := ctx.FormFile("image")
	if err != nil {
		return nil, ""
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "The submitted file could not be read."
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, p.maxImageBytes+1))
	if err != nil {
		return nil, "The submitted file could not be read."
	}
	return &storage.Upload{Filename: fh.Filename, Data: data}, ""
}

func withField(errs map[string]string, field, msg string) map[string]string {
	if errs == nil {
		errs = map[string]string{}
	}
	if _, ok := errs[field]; !ok {
		errs[field] = msg
	}
	return errs
}
