package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/conneroisu/tplcat/internal/query"
	"github.com/conneroisu/tplcat/internal/types"
	"github.com/conneroisu/tplcat/internal/version"
)

type templateList struct {
	Count     int              `json:"count"`
	Templates []types.Template `json:"templates"`
}

type categoryDetail struct {
	Key       string           `json:"key"`
	Category  types.Category   `json:"category"`
	Templates []types.Template `json:"templates"`
}

type statsResponse struct {
	query.Stats
	Generation  int       `json:"generation"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	engine := s.registry.Current()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"generation":  s.registry.Generation(),
		"generatedAt": engine.GeneratedAt(),
		"templates":   engine.Stats().Total,
		"clients":     s.ClientCount(),
		"version":     version.GetShortVersion(),
		"build_info":  version.GetBuildInfo(),
	})
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newTemplateList(s.registry.Current().Browse(filter)))
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	template, ok := s.registry.Current().ByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("template %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newTemplateList(s.registry.Current().Featured()))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Current().Categories())
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	engine := s.registry.Current()

	var (
		key      string
		category types.Category
		found    bool
	)
	categories := engine.Categories()
	categories.Each(func(label string, c types.Category) bool {
		if c.Slug == slug {
			key, category, found = label, c, true
			return false
		}
		return true
	})
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("category %q not found", slug))
		return
	}

	// ByCategory also matches on the directory slug; the summary is keyed
	// by label only.
	members := make([]types.Template, 0, category.Count)
	for _, t := range engine.ByCategory(key) {
		if t.Category == key {
			members = append(members, t)
		}
	}

	writeJSON(w, http.StatusOK, categoryDetail{
		Key:       key,
		Category:  category,
		Templates: members,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	engine := s.registry.Current()

	writeJSON(w, http.StatusOK, statsResponse{
		Stats:       engine.Stats(),
		Generation:  s.registry.Generation(),
		GeneratedAt: engine.GeneratedAt(),
	})
}

// filterFromRequest reads a browse filter from the category, q, sort, tech
// and featured query parameters.
func filterFromRequest(r *http.Request) (query.Filter, error) {
	params := r.URL.Query()

	sortMode, err := query.ParseSortMode(params.Get("sort"))
	if err != nil {
		return query.Filter{}, err
	}

	filter := query.Filter{
		Category: params.Get("category"),
		Query:    params.Get("q"),
		Sort:     sortMode,
		Tech:     params.Get("tech"),
	}

	if raw := params.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return query.Filter{}, fmt.Errorf("featured must be a boolean, got %q", raw)
		}
		filter.FeaturedOnly = featured
	}

	return filter, nil
}

func newTemplateList(templates []types.Template) templateList {
	if templates == nil {
		templates = []types.Template{}
	}
	return templateList{Count: len(templates), Templates: templates}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	// headers are gone; nothing useful can be done with an encode error
	_ = encoder.Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
