package nav

import (
	"embed"
	"html/template"
	"io"
)

//go:embed pages/*.html
var pageFS embed.FS

var pages = template.Must(template.ParseFS(pageFS, "pages/*.html"))

// Page renders a route's HTML.
type Page interface {
	Render(w io.Writer, data PageData) error
}

type templatePage string

func (p templatePage) Render(w io.Writer, data PageData) error {
	return pages.ExecuteTemplate(w, string(p), data)
}

// ClientUploadPage is the file upload screen.
var ClientUploadPage Page = templatePage("client_upload.html")

type Route struct {
	Path      string
	Name      string
	Component Page
}

// Routes is the navigation table.
func Routes() []Route {
	return []Route{
		{
			Path:      "/client-upload",
			Name:      "ClientUpload",
			Component: ClientUploadPage,
		},
	}
}
