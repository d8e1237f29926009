package report

import "time"

// Summary holds report-wide modem counts. HealthyCount and DssOnlyCount are
// optional on the wire; older results only carry the three base counts.
type Summary struct {
	TotalModems         int     `json:"total_modems"`
	UspDspCount         int     `json:"usp_dsp_count"`
	UspDspDssCount      int     `json:"usp_dsp_dss_count"`
	HealthyCount        *int    `json:"healthy_count,omitempty"`
	DssOnlyCount        *int    `json:"dss_only_count,omitempty"`
	UspDspPercentage    float64 `json:"usp_dsp_percentage"`
	UspDspDssPercentage float64 `json:"usp_dsp_dss_percentage"`
	HealthyPercentage   float64 `json:"healthy_percentage"`
}

// Healthy returns the healthy modem count, deriving it from the totals when
// the result does not carry one.
func (s Summary) Healthy() int {
	if s.HealthyCount != nil && *s.HealthyCount > 0 {
		return *s.HealthyCount
	}
	return max(0, s.TotalModems-s.UspDspDssCount)
}

// DssOnly returns the number of modems whose only issue is the downstream
// signal.
func (s Summary) DssOnly() int {
	if s.DssOnlyCount != nil && *s.DssOnlyCount > 0 {
		return *s.DssOnlyCount
	}
	return max(0, s.UspDspDssCount-s.UspDspCount)
}

type AmpRow struct {
	Rank       int     `json:"rank"`
	AmpName    string  `json:"amp_name"`
	AmpCode    string  `json:"amp_code"`
	BadCount   int     `json:"bad_count"`
	TotalCount int     `json:"total_count"`
	Percentage float64 `json:"percentage"`
	UspCount   int     `json:"usp_count"`
	DspCount   int     `json:"dsp_count"`
	IsNew      bool    `json:"is_new"`
}

type NodeRow struct {
	Rank       int     `json:"rank"`
	OnNode     string  `json:"on_node"`
	OnName     string  `json:"on_name"`
	BadCount   int     `json:"bad_count"`
	TotalCount int     `json:"total_count"`
	Percentage float64 `json:"percentage"`
	UspCount   int     `json:"usp_count"`
	DspCount   int     `json:"dsp_count"`
	IsNew      bool    `json:"is_new"`
}

type DssRow struct {
	Rank       int     `json:"rank"`
	OnNode     string  `json:"on_node"`
	OnName     string  `json:"on_name"`
	BadCount   int     `json:"bad_count"`
	DssCount   int     `json:"dss_count"`
	TotalCount int     `json:"total_count"`
	Percentage float64 `json:"percentage"`
	IsNew      bool    `json:"is_new"`
}

type NewEntries struct {
	NewAmpCount int `json:"new_amp_count"`
	NewOnCount  int `json:"new_on_count"`
	NewDssCount int `json:"new_dss_count"`
}

// Total is the number of new rows across all three tables.
func (n NewEntries) Total() int {
	return n.NewAmpCount + n.NewOnCount + n.NewDssCount
}

// Result is the analysis of one uploaded report. It is both the body of a
// successful upload and the stored latest result of a city. Failed uploads
// decode into a Result with Success false and Error set.
type Result struct {
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	City       City        `json:"city,omitempty"`
	Summary    Summary     `json:"summary"`
	TopAmp     []AmpRow    `json:"top_10_amp"`
	TopOn      []NodeRow   `json:"top_10_on"`
	TopDss     []DssRow    `json:"top_20_dss"`
	NewEntries *NewEntries `json:"new_entries_summary,omitempty"`
}
