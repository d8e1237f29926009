package main

import (
	"time"

	"github.com/arty021/bad-modems/internal/report"
)

type errResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type cityInfo struct {
	ID         report.City `json:"id"`
	Name       string      `json:"name"`
	HasData    bool        `json:"has_data"`
	LastUpload *time.Time  `json:"last_upload,omitempty"`
}

type historyRow struct {
	ID             uint64    `json:"id"`
	City           string    `json:"city"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
	FileName       string    `json:"file_name"`
	TotalModems    int       `json:"total_modems"`
	UspDspCount    int       `json:"usp_dsp_count"`
	UspDspDssCount int       `json:"usp_dsp_dss_count"`
	HealthyCount   int       `json:"healthy_count"`
	HealthPercent  float64   `json:"health_percent"`
	NewEntries     int       `json:"new_entries"`
}

type trendPoint struct {
	Bucket string  `json:"bucket"`
	Value  float64 `json:"value"`
	Runs   int     `json:"runs"`
}
