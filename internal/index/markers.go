package index

import (
	"fmt"
	"sort"
	"time"

	"github.com/daybookapp/daybook-server/internal/domain"
)

// Filter narrows the entry set the map views draw from. Zero values mean
// "no constraint"; dates are inclusive "YYYY-MM-DD" bounds compared
// lexically, which is safe for that format.
type Filter struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Hashtag   string `json:"hashtag,omitempty"`
}

// Matches reports whether an entry passes the filter.
func (f Filter) Matches(e domain.Entry) bool {
	if f.StartDate != "" && e.Date < f.StartDate {
		return false
	}
	if f.EndDate != "" && e.Date > f.EndDate {
		return false
	}
	if f.Hashtag != "" && !e.HasHashtag(f.Hashtag) {
		return false
	}
	return true
}

// MarkerPhoto is one photo pinned at a location, carrying enough context
// for a popup without another lookup.
type MarkerPhoto struct {
	EntryID    string `json:"entryId"`
	EntryTitle string `json:"entryTitle"`
	Date       string `json:"date"`
	Name       string `json:"name,omitempty"`
	ShotAt     int64  `json:"shotAt"`
	Blurhash   string `json:"blurhash,omitempty"`
}

// Marker is one map pin: photos shot at (near enough) the same place,
// ordered by capture time for slideshow-style popups.
type Marker struct {
	Lat    float64       `json:"lat"`
	Lng    float64       `json:"lng"`
	Photos []MarkerPhoto `json:"photos"`
}

// Markers flattens the photos of every entry passing the filter into map
// pins. Photos without GPS are skipped. Coordinates are grouped at 6
// decimal places (about 0.11 m), so photos taken at the same spot share a
// pin with a capture-time-ordered photo list.
func Markers(entries []domain.Entry, f Filter) []Marker {
	type group struct {
		lat, lng float64
		photos   []MarkerPhoto
	}

	groups := make(map[string]*group)
	order := []string{}

	for _, e := range entries {
		if !f.Matches(e) {
			continue
		}
		for _, item := range e.PhotoItems {
			if item.GPS == nil {
				continue
			}

			key := fmt.Sprintf("%.6f,%.6f", item.GPS.Lat, item.GPS.Lng)
			g, ok := groups[key]
			if !ok {
				g = &group{lat: item.GPS.Lat, lng: item.GPS.Lng}
				groups[key] = g
				order = append(order, key)
			}
			g.photos = append(g.photos, MarkerPhoto{
				EntryID:    e.ID,
				EntryTitle: e.Title,
				Date:       e.Date,
				Name:       item.Name,
				ShotAt:     item.ShotAt,
				Blurhash:   item.Blurhash,
			})
		}
	}

	markers := make([]Marker, 0, len(order))
	for _, key := range order {
		g := groups[key]
		sort.SliceStable(g.photos, func(i, j int) bool {
			return g.photos[i].ShotAt < g.photos[j].ShotAt
		})
		markers = append(markers, Marker{Lat: g.lat, Lng: g.lng, Photos: g.photos})
	}
	return markers
}

// PathPoint is one stop on a day's route, numbered in capture order.
type PathPoint struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Seq    int     `json:"seq"`
	ShotAt int64   `json:"shotAt"`
}

// Path is the ordered route walked on one diary day.
type Path struct {
	Date   string      `json:"date"`
	Color  string      `json:"color"`
	Points []PathPoint `json:"points"`
}

// dayColors cycles with the day of week so paths from different days stay
// tellable apart.
var dayColors = [7]string{
	"#FF6B6B", // Sunday
	"#FF8E53",
	"#FFD93D",
	"#6BCF7F",
	"#4ECDC4",
	"#45B7D1",
	"#9B59B6", // Saturday
}

// DayColor returns the deterministic path color for a diary day.
func DayColor(date string) string {
	t, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return dayColors[0]
	}
	return dayColors[int(t.Weekday())]
}

// DayPaths builds one route per calendar day covered by the entries that
// pass the filter, each ordered by capture time with 1-based sequence
// numbers. Used when a hashtag search traces where a day went.
func DayPaths(entries []domain.Entry, f Filter) []Path {
	byDate := make(map[string][]PathPoint)

	for _, e := range entries {
		if !f.Matches(e) {
			continue
		}
		for _, item := range e.PhotoItems {
			if item.GPS == nil {
				continue
			}
			byDate[e.Date] = append(byDate[e.Date], PathPoint{
				Lat:    item.GPS.Lat,
				Lng:    item.GPS.Lng,
				ShotAt: item.ShotAt,
			})
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	paths := make([]Path, 0, len(dates))
	for _, date := range dates {
		points := byDate[date]
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].ShotAt < points[j].ShotAt
		})
		for i := range points {
			points[i].Seq = i + 1
		}
		paths = append(paths, Path{Date: date, Color: DayColor(date), Points: points})
	}
	return paths
}

// Hashtags collects the distinct hashtags across all entries, ordered by
// first appearance, for the map page's tag chips.
func Hashtags(entries []domain.Entry) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, e := range entries {
		for _, tag := range e.Hashtags() {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
