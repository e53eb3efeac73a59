package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daybookapp/daybook-server/internal/domain"
	"github.com/daybookapp/daybook-server/internal/http/response"
)

// navStateResponse mirrors the day cursor for the client: which entry is
// under the cursor and which slideshow controls to show.
type navStateResponse struct {
	Date    string        `json:"date"`
	Index   int           `json:"index"`
	Count   int           `json:"count"`
	CanPrev bool          `json:"canPrev"`
	CanNext bool          `json:"canNext"`
	Entry   *domain.Entry `json:"entry,omitempty"`
}

// navState builds the response under s.navMu.
func (s *Server) navState() navStateResponse {
	state := navStateResponse{
		Date:    s.navigator.Date(),
		Index:   s.navigator.Index(),
		Count:   s.navigator.Len(),
		CanPrev: s.navigator.CanPrev(),
		CanNext: s.navigator.CanNext(),
	}
	if entry, ok := s.navigator.Current(); ok {
		state.Entry = &entry
	}
	return state
}

// handleNavSelect points the day cursor at a date; the cursor lands on
// the day's newest entry.
func (s *Server) handleNavSelect(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if date == "" {
		response.BadRequest(w, "Date is required", s.logger)
		return
	}

	s.navMu.Lock()
	s.navigator.SelectDate(s.repo.Snapshot(), date)
	state := s.navState()
	s.navMu.Unlock()

	response.Success(w, state, s.logger)
}

// handleNavCurrent returns the cursor state. Reads never move the
// cursor; repository change notifications keep the day list fresh.
func (s *Server) handleNavCurrent(w http.ResponseWriter, r *http.Request) {
	s.navMu.Lock()
	state := s.navState()
	s.navMu.Unlock()

	response.Success(w, state, s.logger)
}

// handleNavPrev moves the cursor toward the more recent entry.
func (s *Server) handleNavPrev(w http.ResponseWriter, r *http.Request) {
	s.navMu.Lock()
	s.navigator.Prev()
	state := s.navState()
	s.navMu.Unlock()

	response.Success(w, state, s.logger)
}

// handleNavNext moves the cursor toward the older entry.
func (s *Server) handleNavNext(w http.ResponseWriter, r *http.Request) {
	s.navMu.Lock()
	s.navigator.Next()
	state := s.navState()
	s.navMu.Unlock()

	response.Success(w, state, s.logger)
}

// handleNavClear drops the day selection.
func (s *Server) handleNavClear(w http.ResponseWriter, r *http.Request) {
	s.navMu.Lock()
	s.navigator.Clear()
	state := s.navState()
	s.navMu.Unlock()

	response.Success(w, state, s.logger)
}
