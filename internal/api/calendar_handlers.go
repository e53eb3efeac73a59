package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/daybookapp/daybook-server/internal/index"
)

func (s *Server) registerCalendarRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "calendarMonth",
		Method:      http.MethodGet,
		Path:        "/api/v1/calendar/{year}/{month}",
		Summary:     "Calendar month marks",
		Description: "Returns which days of the month have at least one diary entry",
		Tags:        []string{"Calendar"},
	}, s.handleCalendarMonth)
}

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Entry statistics",
		Description: "Returns total, this-month, and with-photos entry counts",
		Tags:        []string{"Stats"},
	}, s.handleStats)
}

// CalendarInput selects the month to mark.
type CalendarInput struct {
	Year  int `path:"year" minimum:"1970" maximum:"9999" doc:"Calendar year"`
	Month int `path:"month" minimum:"1" maximum:"12" doc:"Calendar month (1-12)"`
}

// CalendarResponse lists the marked days of one month.
type CalendarResponse struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Days  []int `json:"days" doc:"Days of the month with at least one entry, ascending"`
}

// CalendarOutput wraps the calendar response for Huma.
type CalendarOutput struct {
	Body CalendarResponse
}

func (s *Server) handleCalendarMonth(_ context.Context, input *CalendarInput) (*CalendarOutput, error) {
	marked := index.MarkedDays(s.repo.Snapshot(), input.Year, input.Month)

	days := make([]int, 0, len(marked))
	for day := range marked {
		days = append(days, day)
	}
	sort.Ints(days)

	return &CalendarOutput{
		Body: CalendarResponse{
			Year:  input.Year,
			Month: input.Month,
			Days:  days,
		},
	}, nil
}

// StatsInput optionally overrides the month under report.
type StatsInput struct {
	Month string `query:"month" pattern:"^\\d{4}-\\d{2}$" doc:"Month as YYYY-MM, defaults to the current month"`
}

// StatsResponse carries the dashboard counters.
type StatsResponse struct {
	Total            int    `json:"total" doc:"Entries overall"`
	ThisMonth        int    `json:"thisMonth" doc:"Entries in the reported month"`
	WithPhotos       int    `json:"withPhotos" doc:"Entries carrying at least one photo"`
	Month            string `json:"month" doc:"Month the thisMonth counter covers"`
	StorageAvailable bool   `json:"storageAvailable" doc:"Whether the durable store accepts writes"`
}

// StatsOutput wraps the stats response for Huma.
type StatsOutput struct {
	Body StatsResponse
}

func (s *Server) handleStats(_ context.Context, input *StatsInput) (*StatsOutput, error) {
	month := input.Month
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	stats := s.repo.Stats(month)
	return &StatsOutput{
		Body: StatsResponse{
			Total:            stats.Total,
			ThisMonth:        stats.ThisMonth,
			WithPhotos:       stats.WithPhotos,
			Month:            month,
			StorageAvailable: s.repo.StorageAvailable(),
		},
	}, nil
}
