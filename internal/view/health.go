package view

import (
	"fmt"
	"time"

	"github.com/arty021/bad-modems/internal/report"
)

// PercentageClass classifies a bad/total ratio for its badge.
func PercentageClass(p float64) string {
	switch {
	case p >= 50:
		return "high"
	case p >= 20:
		return "medium"
	}
	return "low"
}

// HealthStatus is the label and gauge color of a health score.
type HealthStatus struct {
	Label string
	Color string
}

var (
	StatusExcellent = HealthStatus{Label: "excellent", Color: "#4cd964"}
	StatusGood      = HealthStatus{Label: "good", Color: "#34c759"}
	StatusWarning   = HealthStatus{Label: "warning", Color: "#ffcc00"}
	StatusCritical  = HealthStatus{Label: "critical", Color: "#ff3b30"}
)

// HealthScore returns healthy/total as a percentage rounded to one decimal
// and the status it falls in. A zero total scores 0.
func HealthScore(healthy, total int) (float64, HealthStatus) {
	percent := percentOf(healthy, total)
	switch {
	case percent >= 95:
		return percent, StatusExcellent
	case percent >= 85:
		return percent, StatusGood
	case percent >= 70:
		return percent, StatusWarning
	}
	return percent, StatusCritical
}

func percentOf(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return report.Round(float64(part)/float64(total)*100, 1)
}

// Health is the content of the network health panel.
type Health struct {
	TotalModems    int
	Healthy        int
	PowerIssues    int
	DssOnly        int
	TotalIssues    int
	Score          float64
	Status         HealthStatus
	HealthyPercent float64
	PowerPercent   float64
	DssPercent     float64
	TotalPercent   float64
	// Issue bars are scaled five times so small shares stay visible.
	PowerBar float64
	DssBar   float64
	TotalBar float64
	Updated  string
}

func buildHealth(res *report.Result) Health {
	s := res.Summary
	h := Health{
		TotalModems: s.TotalModems,
		Healthy:     s.Healthy(),
		PowerIssues: s.UspDspCount,
		DssOnly:     s.DssOnly(),
		TotalIssues: s.UspDspDssCount,
	}
	h.Score, h.Status = HealthScore(h.Healthy, h.TotalModems)
	h.HealthyPercent = h.Score
	h.PowerPercent = percentOf(h.PowerIssues, h.TotalModems)
	h.DssPercent = percentOf(h.DssOnly, h.TotalModems)
	h.TotalPercent = percentOf(h.TotalIssues, h.TotalModems)
	h.PowerBar = min(h.PowerPercent*5, 100)
	h.DssBar = min(h.DssPercent*5, 100)
	h.TotalBar = min(h.TotalPercent*5, 100)
	if !res.Timestamp.IsZero() {
		h.Updated = FormatUpdated(res.Timestamp)
	}
	return h
}

// FormatUpdated renders a result timestamp as D.M.YYYY, HH:MM:SS in local
// time.
func FormatUpdated(t time.Time) string {
	t = t.Local()
	return fmt.Sprintf("%d.%d.%d, %02d:%02d:%02d", t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), t.Second())
}
