package generator

import (
	"fmt"
	"strings"
	"time"
)

// Category buckets a photo set for template selection.
type Category string

const (
	CategoryGeneralSingle Category = "general_single"
	CategoryFoodSingle    Category = "food_single"
	CategoryJourneyMulti  Category = "journey_multi"
)

// foodHints are filename fragments that mark a single photo as a meal.
var foodHints = []string{
	"food", "meal", "lunch", "dinner", "breakfast", "cafe", "coffee", "cake", "bread",
	"noodle", "ramen", "pizza", "burger", "pasta", "sushi",
	"식당", "밥", "점심", "저녁", "아침", "카페", "커피", "케이크", "빵", "라면", "피자", "버거", "파스타", "스시",
}

// Classify picks the template category from the attached filenames: a
// lone photo is general or food depending on its name, two or more make
// a journey.
func Classify(fileNames []string) Category {
	if len(fileNames) == 0 {
		return CategoryGeneralSingle
	}
	if len(fileNames) == 1 {
		name := strings.ToLower(fileNames[0])
		for _, hint := range foodHints {
			if strings.Contains(name, hint) {
				return CategoryFoodSingle
			}
		}
		return CategoryGeneralSingle
	}
	return CategoryJourneyMulti
}

// PhotoSummary is the per-photo skeleton the templates fill from. Place,
// weather and description stay empty unless a caller knows better.
type PhotoSummary struct {
	Place   string `json:"place"`
	Time    string `json:"time"`
	Weather string `json:"weather"`
	Desc    string `json:"desc"`
}

// TimeLabel names a photo's position in the day by where it falls in the
// capture order.
func TimeLabel(index, total int) string {
	if total <= 1 {
		return "불명"
	}
	ratio := float64(index) / float64(total-1)
	switch {
	case ratio < 0.25:
		return "오전"
	case ratio < 0.5:
		return "정오"
	case ratio < 0.75:
		return "오후"
	default:
		return "저녁"
	}
}

// BuildSummary produces one summary row per photo, stamped with today's
// date and a positional time-of-day label.
func BuildSummary(count int, now time.Time) []PhotoSummary {
	ymd := now.Format("2006-01-02")
	summary := make([]PhotoSummary, 0, count)
	for i := 0; i < count; i++ {
		summary = append(summary, PhotoSummary{
			Time: fmt.Sprintf("%s %s", ymd, TimeLabel(i, count)),
		})
	}
	return summary
}

// timeOfDay pulls the trailing time-of-day label out of a summary time
// like "2024-05-01 오후".
func timeOfDay(t string) string {
	fields := strings.Fields(t)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Fallback renders deterministic diary text from the photo summaries. It
// mirrors the remote generator's shape but learns nothing: a journey
// template for multi-photo days, a short pause template otherwise.
func Fallback(summary []PhotoSummary, category Category) string {
	n := len(summary)

	if category == CategoryJourneyMulti && n >= 2 {
		parts := make([]string, 0, n+3)

		t0 := timeOfDay(summary[0].Time)
		if summary[0].Place != "" {
			parts = append(parts, fmt.Sprintf("%s에서 %s에 하루를 열었다.", summary[0].Place, t0))
		} else {
			parts = append(parts, fmt.Sprintf("%s에 하루를 열었다.", t0))
		}

		for i := 1; i < n-1; i++ {
			seg := []string{}
			if summary[i].Place != "" {
				seg = append(seg, fmt.Sprintf("%s로 옮기며", summary[i].Place))
			}
			if summary[i].Desc != "" {
				seg = append(seg, fmt.Sprintf("%s을 지나쳤다", summary[i].Desc))
			}
			if len(seg) > 0 {
				parts = append(parts, strings.Join(seg, " ")+".")
			} else {
				parts = append(parts, "잠시 걸음을 늦췄다.")
			}
		}

		lastPlace := summary[n-1].Place
		if lastPlace == "" {
			lastPlace = "주변"
		}
		parts = append(parts, fmt.Sprintf("%s의 빛이 천천히 바뀌었다.", lastPlace))
		parts = append(parts, "남은 소리와 온기가 조용히 정리되었다.")

		if len(parts) > 7 {
			parts = parts[:7]
		}
		return strings.Join(parts, "\n")
	}

	p := PhotoSummary{Time: "오후"}
	if n > 0 {
		p = summary[0]
	}

	parts := make([]string, 0, 4)
	tpart := timeOfDay(p.Time)
	if p.Place != "" {
		parts = append(parts, fmt.Sprintf("%s에서 %s에 잠시 멈췄다.", p.Place, tpart))
	} else {
		parts = append(parts, fmt.Sprintf("%s에 잠시 멈췄다.", tpart))
	}
	if p.Desc != "" {
		parts = append(parts, fmt.Sprintf("%s이 눈에 들어왔다.", p.Desc))
	}
	parts = append(parts, "숨을 고르니 공간의 결이 또렷해졌다.")
	parts = append(parts, "짧은 고요가 오늘의 끝을 부드럽게 덮었다.")

	if len(parts) > 4 {
		parts = parts[:4]
	}
	return strings.Join(parts, "\n")
}
