package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/tplcat/internal/query"
	"github.com/conneroisu/tplcat/internal/types"
)

// indexView is everything the browse page renders
type indexView struct {
	Filter     query.Filter
	Stats      query.Stats
	Categories types.Categories
	Templates  []types.Template
	Error      string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	engine := s.registry.Current()
	view := indexView{
		Stats:      engine.Stats(),
		Categories: engine.Categories(),
	}

	status := http.StatusOK
	filter, err := filterFromRequest(r)
	if err != nil {
		status = http.StatusBadRequest
		view.Error = err.Error()
	} else {
		view.Filter = filter
		view.Templates = engine.Browse(filter)
	}

	templ.Handler(indexPage(view), templ.WithStatus(status)).ServeHTTP(w, r)
}

func indexPage(view indexView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}

		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>Template catalog</title>`)
		p.raw(`<style>` + indexCSS + `</style></head><body>`)

		p.raw(`<header><h1>Template catalog</h1>`)
		p.raw(`<p class="stats">`)
		p.text(fmt.Sprintf("%d templates, %d categories, %d featured",
			view.Stats.Total, view.Stats.CategoryCount, view.Stats.FeaturedCount))
		p.raw(`</p></header>`)

		if view.Error != "" {
			p.raw(`<p class="error" role="alert">`)
			p.text(view.Error)
			p.raw(`</p>`)
		}

		renderCategoryNav(p, view)
		renderSearch(p, view.Filter)

		p.raw(`<main>`)
		if len(view.Templates) == 0 && view.Error == "" {
			p.raw(`<p class="empty">No templates match.</p>`)
		}
		for _, t := range view.Templates {
			renderCard(p, t)
		}
		p.raw(`</main>`)

		p.raw(`<script>` + reloadScript + `</script></body></html>`)
		return p.err
	})
}

func renderCategoryNav(p *pageWriter, view indexView) {
	current := view.Filter.Category
	if current == "" {
		current = query.AllCategories
	}

	p.raw(`<nav class="categories">`)
	link := func(key, label string) {
		class := "category"
		if key == current {
			class += " active"
		}
		p.raw(`<a class="` + class + `" href="`)
		p.text(browseURL(view.Filter, key))
		p.raw(`">`)
		p.text(label)
		p.raw(`</a>`)
	}

	link(query.AllCategories, "All")
	view.Categories.Each(func(label string, c types.Category) bool {
		link(label, fmt.Sprintf("%s (%d)", c.Name, c.Count))
		return true
	})
	p.raw(`</nav>`)
}

func renderSearch(p *pageWriter, f query.Filter) {
	p.raw(`<form class="search" method="get" action="/">`)
	if f.Category != "" {
		p.raw(`<input type="hidden" name="category" value="`)
		p.text(f.Category)
		p.raw(`">`)
	}
	p.raw(`<input type="search" name="q" placeholder="Search templates" value="`)
	p.text(f.Query)
	p.raw(`"><select name="sort">`)
	for _, mode := range []query.SortMode{query.SortRecent, query.SortPopular} {
		selected := ""
		if f.Sort == mode {
			selected = " selected"
		}
		p.raw(`<option value="` + string(mode) + `"` + selected + `>` + string(mode) + `</option>`)
	}
	p.raw(`</select><button type="submit">Search</button></form>`)
}

func renderCard(p *pageWriter, t types.Template) {
	p.raw(`<article class="template-card" data-id="`)
	p.text(t.ID)
	p.raw(`"><h2>`)
	p.text(t.Name)
	p.raw(`</h2>`)
	if t.Featured {
		p.raw(`<span class="badge">Featured</span>`)
	}
	p.raw(`<p class="category">`)
	p.text(t.Category)
	p.raw(`</p><p class="description">`)
	p.text(t.Description)
	p.raw(`</p>`)
	if len(t.TechStack) > 0 {
		p.raw(`<ul class="tech">`)
		for _, tech := range t.TechStack {
			p.raw(`<li>`)
			p.text(tech)
			p.raw(`</li>`)
		}
		p.raw(`</ul>`)
	}
	p.raw(`<div class="swatches">`)
	for _, color := range []string{t.Colors.Primary, t.Colors.Secondary, t.Colors.Accent} {
		p.raw(`<span class="swatch" title="`)
		p.text(color)
		p.raw(`"></span>`)
	}
	p.raw(`</div></article>`)
}

// browseURL keeps the query and sort of f while switching category
func browseURL(f query.Filter, category string) string {
	values := url.Values{}
	if category != "" && category != query.AllCategories {
		values.Set("category", category)
	}
	if f.Query != "" {
		values.Set("q", f.Query)
	}
	if f.Sort != "" && f.Sort != query.SortRecent {
		values.Set("sort", string(f.Sort))
	}
	if len(values) == 0 {
		return "/"
	}
	return "/?" + values.Encode()
}

// pageWriter writes markup and remembers the first write error
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *pageWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

var indexCSS = strings.Join([]string{
	`body{font-family:system-ui,sans-serif;margin:0 auto;max-width:64rem;padding:1rem}`,
	`.categories a{margin-right:.5rem}.categories a.active{font-weight:bold}`,
	`main{display:grid;grid-template-columns:repeat(auto-fill,minmax(16rem,1fr));gap:1rem}`,
	`.template-card{border:1px solid #ddd;border-radius:.5rem;padding:1rem}`,
	`.badge{background:#ffd54f;border-radius:.25rem;padding:0 .25rem}`,
	`.error{color:#b00020}`,
}, "\n")

const reloadScript = `(function(){
var proto = location.protocol === "https:" ? "wss://" : "ws://";
function connect(){
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function(e){
    try { if (JSON.parse(e.data).type === "catalog-reloaded") location.reload(); } catch (_) {}
  };
  ws.onclose = function(){ setTimeout(connect, 2000); };
}
connect();
})();`
