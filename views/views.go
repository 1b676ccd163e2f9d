// Package views holds the embedded HTML templates.
package views

import (
	"embed"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Load parses every page and partial. imageURL maps a stored image name to its public URL.
func Load(imageURL func(string) string) (*template.Template, error) {
	funcs := template.FuncMap{
		"imageURL": imageURL,
		"text": func(s string) template.HTML {
			return template.HTML(utils.RenderText(s))
		},
		"date": func(t time.Time) string {
			return t.Format("2 January 2006 15:04")
		},
		"pageLink": pageLink,
		"postURL":  PostURL,
		"isOwner": func(viewer *models.User, authorID uint) bool {
			return viewer != nil && viewer.ID == authorID
		},
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// PostURL is the canonical address of a post.
func PostURL(p models.Post) string {
	return "/" + url.PathEscape(p.Author.Username) + "/" + strconv.FormatUint(uint64(p.ID), 10) + "/"
}

func pageLink(n int) string {
	return "?page=" + strconv.Itoa(n)
}
