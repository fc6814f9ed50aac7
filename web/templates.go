package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/user/redditclone-go/posts"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	// date renders an API timestamp for humans.
	"date": func(ms string) string {
		t, err := posts.ParseTimestamp(ms)
		if err != nil {
			return ""
		}
		return t.UTC().Format(time.RFC822)
	},
}

// parsePages parses every page together with the shared layout. Each page
// defines "title" and "content"; the layout renders them.
func parsePages(pages ...string) (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, err
		}
		out[page] = t
	}
	return out, nil
}
