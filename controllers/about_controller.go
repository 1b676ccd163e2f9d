package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AboutAuthor is a static page.
func AboutAuthor(ctx *gin.Context) {
	render(ctx, http.StatusOK, "about_author.html", "About the author", nil)
}

// AboutTech is a static page.
func AboutTech(ctx *gin.Context) {
	render(ctx, http.StatusOK, "about_tech.html", "Technologies", nil)
}
