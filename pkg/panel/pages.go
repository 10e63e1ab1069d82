package panel

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/matzehuels/adminpanel/pkg/buildinfo"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names served by PageHandler.
const (
	PageHome    = "home"
	PageAbout   = "about"
	PageOffline = "offline"
)

var pageTitles = map[string]string{
	PageHome:    "Home",
	PageAbout:   "About",
	PageOffline: "Offline",
}

var pages = parsePages()

func parsePages() map[string]*template.Template {
	out := make(map[string]*template.Template, len(pageTitles))
	for name := range pageTitles {
		out[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return out
}

type pageData struct {
	Title   string
	Theme   Theme
	Version string
	BaseURL string
}

// PageHandler renders a static page with the request's theme.
func (s *Server) PageHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tmpl, ok := pages[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		data := pageData{
			Title:   pageTitles[name],
			Theme:   ThemeFrom(r.Context()),
			Version: buildinfo.Version,
			BaseURL: s.baseURL,
		}

		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
			s.logger.Error("render page", "page", name, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}
}
