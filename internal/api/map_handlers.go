package api

import (
	"net/http"

	"github.com/daybookapp/daybook-server/internal/http/response"
	"github.com/daybookapp/daybook-server/internal/index"
	"github.com/daybookapp/daybook-server/internal/mirror"
)

// parseFilter reads the map filter from query parameters.
func parseFilter(r *http.Request) index.Filter {
	q := r.URL.Query()
	return index.Filter{
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Hashtag:   q.Get("hashtag"),
	}
}

// rememberSearch records a non-empty map search in the history, best
// effort. A failed write never blocks the search itself.
func (s *Server) rememberSearch(r *http.Request, f index.Filter) {
	search := mirror.Search{
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		Hashtag:   f.Hashtag,
	}
	if search.IsEmpty() {
		return
	}
	if err := s.mirror.RememberSearch(r.Context(), search); err != nil {
		s.logger.Warn("Failed to record map search", "error", err)
	}
}

// handleMarkers returns the map pins for all photos passing the filter.
// A filtered search is remembered in the search history.
func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)
	markers := index.Markers(s.repo.Snapshot(), filter)
	s.rememberSearch(r, filter)
	response.Success(w, markers, s.logger)
}

// handlePaths returns the per-day capture-ordered routes for the filter.
func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	paths := index.DayPaths(s.repo.Snapshot(), parseFilter(r))
	response.Success(w, paths, s.logger)
}

// handleHashtags returns the distinct hashtags for the map page's chips.
func (s *Server) handleHashtags(w http.ResponseWriter, _ *http.Request) {
	tags := index.Hashtags(s.repo.Snapshot())
	response.Success(w, tags, s.logger)
}

// handleRecentSearches returns the remembered map searches, newest first.
func (s *Server) handleRecentSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := s.mirror.RecentSearches(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, searches, s.logger)
}

// handleClearSearches wipes the search history.
func (s *Server) handleClearSearches(w http.ResponseWriter, r *http.Request) {
	if err := s.mirror.ClearSearchHistory(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}
