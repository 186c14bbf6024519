package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kalambet/calldash/internal/discovery"
	"github.com/kalambet/calldash/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// view is the data every page template receives.
type view struct {
	Title    string
	ShowBack bool
	User     *discovery.User
	Initials string
	Page     any
}

type renderer struct {
	pages map[string]*template.Template
}

var pieColors = []string{"#3b82f6", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6", "#ec4899", "#14b8a6", "#64748b"}

var funcs = template.FuncMap{
	"reaction":       discovery.Reaction,
	"reactionDetail": discovery.ReactionDetail,
	"stageVariant":   discovery.StageVariant,
	"industryLabel":  discovery.IndustryLabel,
	"excerpt":        discovery.Excerpt,
	"initials":       session.Initials,
	"lower":          strings.ToLower,
	"upper":          strings.ToUpper,
	"pie":            pieGradient,
	"color":          func(i int) template.CSS { return template.CSS(sliceColor(i)) },
	"sentiment":      sentimentClass,
	"plural":         plural,
}

func newRenderer() *renderer {
	entries, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		panic(err)
	}
	r := &renderer{pages: make(map[string]*template.Template)}
	for _, e := range entries {
		name := strings.TrimSuffix(strings.TrimPrefix(e, "templates/"), ".html")
		if name == "layout" {
			continue
		}
		t := template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", e))
		r.pages[name] = t
	}
	return r
}

// render writes the named page inside the layout. Output is buffered so a
// template failure never leaves a half-written page.
func (rd *renderer) render(w http.ResponseWriter, status int, name string, v view) {
	t, ok := rd.pages[name]
	if !ok {
		slog.Error("unknown template", "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", v); err != nil {
		slog.Error("rendering template", "name", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// pieGradient draws the sub-industry distribution as a CSS conic gradient.
// The last slice always closes at 100% so rounding never leaves a gap.
func pieGradient(shares []discovery.SubcategoryShare) template.CSS {
	if len(shares) == 0 {
		return template.CSS("#e5e7eb")
	}
	var parts []string
	start := 0
	for i, s := range shares {
		end := start + s.Percent
		if i == len(shares)-1 || end > 100 {
			end = 100
		}
		parts = append(parts, fmt.Sprintf("%s %d%% %d%%", sliceColor(i), start, end))
		start = end
	}
	return template.CSS("conic-gradient(" + strings.Join(parts, ", ") + ")")
}

func sliceColor(i int) string {
	return pieColors[i%len(pieColors)]
}

func sentimentClass(s string) string {
	switch s {
	case discovery.SentimentPositive:
		return "positive"
	case discovery.SentimentNegative:
		return "negative"
	}
	return "neutral"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
