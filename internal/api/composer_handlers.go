package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daybookapp/daybook-server/internal/composer"
	"github.com/daybookapp/daybook-server/internal/domain"
	"github.com/daybookapp/daybook-server/internal/http/response"
	"github.com/daybookapp/daybook-server/internal/media/images"
)

// composerStateResponse mirrors the draft buffer for the client.
type composerStateResponse struct {
	State     composer.State     `json:"state"`
	EntryID   string             `json:"entryId,omitempty"`
	Date      string             `json:"date"`
	Title     string             `json:"title"`
	Body      string             `json:"body"`
	Notes     string             `json:"notes"`
	Tone      string             `json:"tone"`
	Photos    []string           `json:"photos"`
	Items     []domain.PhotoItem `json:"photoItems"`
	RepIndex  int                `json:"repIndex"`
	ViewIndex int                `json:"viewIndex"`
}

func composerState(snap composer.Snapshot) composerStateResponse {
	return composerStateResponse{
		State:     snap.State,
		EntryID:   snap.EntryID,
		Date:      snap.Date,
		Title:     snap.Title,
		Body:      snap.Body,
		Notes:     snap.Notes,
		Tone:      snap.Tone,
		Photos:    snap.Photos,
		Items:     snap.Items,
		RepIndex:  snap.RepIndex,
		ViewIndex: snap.ViewIndex,
	}
}

// handleComposerState returns the whole draft buffer.
func (s *Server) handleComposerState(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, composerState(s.composer.Snapshot()), s.logger)
}

// handleComposerNew opens an empty draft on the currently selected day.
// An optional body {"date": "YYYY-MM-DD"} repoints the day first.
func (s *Server) handleComposerNew(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if r.ContentLength > 0 {
		if err := json.UnmarshalRead(r.Body, &req); err != nil {
			response.BadRequest(w, "Invalid request body", s.logger)
			return
		}
	}

	if req.Date != "" {
		s.composer.SetDate(req.Date)
	}
	s.composer.StartNew()
	response.Success(w, composerState(s.composer.Snapshot()), s.logger)
}

// handleComposerEdit loads a persisted entry into the buffer.
func (s *Server) handleComposerEdit(w http.ResponseWriter, r *http.Request) {
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

	s.composer.LoadForEdit(entry)
	response.Success(w, composerState(s.composer.Snapshot()), s.logger)
}

// handleComposerDraft patches the draft's text fields. Only fields
// present in the body are touched.
func (s *Server) handleComposerDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date  *string `json:"date"`
		Title *string `json:"title"`
		Body  *string `json:"body"`
		Notes *string `json:"notes"`
		Tone  *string `json:"tone"`
	}
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if req.Date != nil {
		s.composer.SetDate(*req.Date)
	}
	if req.Title != nil {
		s.composer.SetTitle(*req.Title)
	}
	if req.Body != nil {
		s.composer.SetBody(*req.Body)
	}
	if req.Notes != nil {
		s.composer.SetNotes(*req.Notes)
	}
	if req.Tone != nil {
		s.composer.SetTone(*req.Tone)
	}
	response.Success(w, composerState(s.composer.Snapshot()), s.logger)
}

type attachPhotoRequest struct {
	Name    string `json:"name"`
	DataURL string `json:"dataURL"`
	ModTime int64  `json:"modTime,omitempty"`
}

// handleComposerAttach adds photos to the draft. Each photo arrives as
// a data URL plus an optional modified time in epoch milliseconds.
func (s *Server) handleComposerAttach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Photos []attachPhotoRequest `json:"photos"`
	}
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if len(req.Photos) == 0 {
		response.BadRequest(w, "At least one photo is required", s.logger)
		return
	}

	files := make([]composer.PhotoFile, 0, len(req.Photos))
	for _, p := range req.Photos {
		_, data, err := images.DecodeDataURL(p.DataURL)
		if err != nil {
			response.BadRequest(w, "Invalid photo data URL", s.logger)
			return
		}
		file := composer.PhotoFile{Name: p.Name, Data: data}
		if p.ModTime > 0 {
			file.ModTime = time.UnixMilli(p.ModTime)
		}
		files = append(files, file)
	}

	attached, err := s.composer.AttachPhotos(r.Context(), files...)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.logger.Info("Attached photos to draft", "attached", attached, "requested", len(req.Photos))
	response.Success(w, composerState(s.composer.Snapshot()), s.logger)
}

// handleComposerRemovePhoto drops one photo from the draft by position.
func (s *Server) handleComposerRemovePhoto(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		response.BadRequest(w, "Invalid photo index", s.logger)
		return
	}

	if err := s.composer.RemovePhoto(index); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, composerState(s.composer.Snapshot()), s.logger)
}

// handleComposerSetRepresentative picks the draft's cover photo.
func (s *Server) handleComposerSetRepresentative(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		response.BadRequest(w, "Invalid photo index", s.logger)
		return
	}

	if err := s.composer.SetRepresentative(index); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, composerState(s.composer.Snapshot()), s.logger)
}

// handleComposerCommit persists the draft. On success the buffer stays
// open in the editing state so further edits update the same entry.
func (s *Server) handleComposerCommit(w http.ResponseWriter, r *http.Request) {
	saved, err := s.composer.Commit(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, saved, s.logger)
}

// handleComposerReset discards the draft and returns the composer to idle.
func (s *Server) handleComposerReset(w http.ResponseWriter, _ *http.Request) {
	s.composer.Reset()
	response.Success(w, composerState(s.composer.Snapshot()), s.logger)
}
