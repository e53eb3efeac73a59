package api

import (
	"encoding/json/v2"
	"net/http"
	"time"

	"github.com/daybookapp/daybook-server/internal/generator"
	"github.com/daybookapp/daybook-server/internal/http/response"
)

type generateResponse struct {
	Body     string `json:"body"`
	Category string `json:"category"`
	Local    bool   `json:"local"`
}

// handleGenerate drafts diary prose from the composer's photos. The
// remote service writes the text unless the request asks for the local
// template fallback; a remote failure is reported, never papered over.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tone  string `json:"tone"`
		Local bool   `json:"local"`
	}
	if r.ContentLength > 0 {
		if err := json.UnmarshalRead(r.Body, &req); err != nil {
			response.BadRequest(w, "Invalid request body", s.logger)
			return
		}
	}

	items := s.composer.PhotoItems()
	if len(items) == 0 {
		response.BadRequest(w, "No photos in the draft to describe", s.logger)
		return
	}

	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	category := generator.Classify(names)

	if req.Local {
		summary := generator.BuildSummary(len(items), time.Now())
		body := generator.Fallback(summary, category)
		s.composer.SetBody(body)
		response.Success(w, generateResponse{Body: body, Category: string(category), Local: true}, s.logger)
		return
	}

	genReq := s.generator.NewRequest(req.Tone, items, time.Now())
	body, err := s.generator.Generate(r.Context(), genReq)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.composer.SetBody(body)
	response.Success(w, generateResponse{Body: body, Category: string(category)}, s.logger)
}
