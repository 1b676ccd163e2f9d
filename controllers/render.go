package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// render writes an HTML page; every page gets the viewer for the navigation bar.
func render(ctx *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["viewer"] = middleware.CurrentUser(ctx)
	ctx.HTML(status, name, data)
}

// RenderError shows the error page with the given status.
func RenderError(ctx *gin.Context, status int) {
	message := "Something went wrong on our side. Please try again later."
	switch status {
	case http.StatusNotFound:
		message = "The page you were looking for does not exist."
	case http.StatusMethodNotAllowed:
		message = "This address does not accept that kind of request."
	case http.StatusTooManyRequests:
		message = "Too many requests. Please wait a minute and try again."
	}
	render(ctx, status, "error.html", http.StatusText(status), gin.H{"status": status, "message": message})
}

// handleError maps service errors onto pages: missing records are 404, anonymous
// users go to the login page, anything unexpected is logged and becomes a 500.
func handleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		RenderError(ctx, http.StatusNotFound)
	case errors.Is(err, services.ErrUnauthenticated):
		ctx.Redirect(http.StatusFound, middleware.LoginURL(ctx.Request.URL.RequestURI()))
	default:
		utils.Sugar.Errorw("request failed", "path", ctx.Request.URL.Path, "err", err)
		RenderError(ctx, http.StatusInternalServerError)
	}
	ctx.Abort()
}

// safeRedirectTarget returns target when it is a local path, otherwise fallback.
func safeRedirectTarget(target, fallback string) string {
	if target == "" {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	return u.RequestURI()
}

// refererPath returns the Referer as a local path when it points at this host.
func refererPath(ctx *gin.Context) string {
	ref := ctx.GetHeader("Referer")
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if u.Host != "" && u.Host != ctx.Request.Host {
		return ""
	}
	if !strings.HasPrefix(u.Path, "/") {
		return ""
	}
	return u.RequestURI()
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func profileURL(username string) string {
	return "/" + url.PathEscape(username) + "/"
}
