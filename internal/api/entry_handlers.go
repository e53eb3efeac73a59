package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daybookapp/daybook-server/internal/domain"
	"github.com/daybookapp/daybook-server/internal/http/response"
	"github.com/daybookapp/daybook-server/internal/index"
)

// handleListEntries returns every entry, most recently saved first.
func (s *Server) handleListEntries(w http.ResponseWriter, _ *http.Request) {
	entries := index.SortedByRecency(s.repo.Snapshot())
	response.Success(w, entries, s.logger)
}

// handleRecentEntries returns the capped recent list for the sidebar.
func (s *Server) handleRecentEntries(w http.ResponseWriter, _ *http.Request) {
	entries := index.RecentList(s.repo.Snapshot())
	response.Success(w, entries, s.logger)
}

// handleSaveEntry persists a full entry document. An empty or unknown id
// creates, a known id overwrites (last write wins).
func (s *Server) handleSaveEntry(w http.ResponseWriter, r *http.Request) {
	var entry domain.Entry
	if err := json.UnmarshalRead(r.Body, &entry); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	isNew := entry.ID == ""
	saved, err := s.repo.Save(r.Context(), entry)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if isNew {
		response.Created(w, saved, s.logger)
		return
	}
	response.Success(w, saved, s.logger)
}

// handleGetEntry returns a single entry by id.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")
	if entryID == "" {
		response.BadRequest(w, "Entry ID is required", s.logger)
		return
	}

	entry, err := s.repo.Get(entryID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, entry, s.logger)
}

// handleDeleteEntry removes an entry from both storage tiers. Deleting an
// id that is already gone is not an error.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")
	if entryID == "" {
		response.BadRequest(w, "Entry ID is required", s.logger)
		return
	}

	if err := s.repo.Delete(r.Context(), entryID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// handleEntriesForDate returns one diary day's entries, newest save first.
func (s *Server) handleEntriesForDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if date == "" {
		response.BadRequest(w, "Date is required", s.logger)
		return
	}

	entries := index.EntriesForDate(s.repo.Snapshot(), date)
	response.Success(w, entries, s.logger)
}
