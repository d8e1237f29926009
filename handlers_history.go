package main

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arty021/bad-modems/internal/report"
)

const trendMaxRuns = 5000

func handleHistory(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("city")
		city, err := report.ParseCity(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "Invalid city: " + raw})
			return
		}
		from, to, err := parseTimeRange(c, defaultHistoryWindow)
		if err != nil {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: err.Error()})
			return
		}

		limit := parseLimit(c.Query("limit"), 30, 1, 365)
		rows, err := loadHistory(a.db, city, from, to, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errResponse{Success: false, Error: err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"city":    city,
			"from":    from,
			"to":      to,
			"data":    rows,
		})
	}
}

// handleTrend aggregates the runs of a city into hour or day buckets.
// Bucketing happens here rather than in SQL so both drivers share it.
func handleTrend(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("city")
		city, err := report.ParseCity(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "Invalid city: " + raw})
			return
		}
		from, to, err := parseTimeRange(c, defaultHistoryWindow)
		if err != nil {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: err.Error()})
			return
		}

		metric := strings.ToLower(strings.TrimSpace(c.Query("metric")))
		if metric == "" {
			metric = "health"
		}
		if metric != "health" && metric != "bad" && metric != "runs" {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "metric must be health|bad|runs"})
			return
		}

		bucket := strings.ToLower(strings.TrimSpace(c.Query("bucket")))
		if bucket == "" {
			bucket = "day"
		}
		if bucket != "hour" && bucket != "day" {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "bucket must be hour|day"})
			return
		}

		rows, err := loadHistory(a.db, city, from, to, trendMaxRuns)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errResponse{Success: false, Error: err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"city":    city,
			"from":    from,
			"to":      to,
			"metric":  metric,
			"bucket":  bucket,
			"data":    buildTrend(rows, metric, bucket),
		})
	}
}

// buildTrend returns one point per bucket in ascending order. health and bad
// are averaged over the runs of the bucket.
func buildTrend(rows []historyRow, metric, bucket string) []trendPoint {
	type acc struct {
		sum  float64
		runs int
	}
	buckets := make(map[string]*acc)
	for _, row := range rows {
		key := bucketKey(row.AnalyzedAt, bucket)
		b, ok := buckets[key]
		if !ok {
			b = &acc{}
			buckets[key] = b
		}
		b.runs++
		switch metric {
		case "health":
			b.sum += row.HealthPercent
		case "bad":
			b.sum += float64(row.UspDspDssCount)
		}
	}

	points := make([]trendPoint, 0, len(buckets))
	for key, b := range buckets {
		value := float64(b.runs)
		if metric != "runs" {
			value = report.Round(b.sum/float64(b.runs), 2)
		}
		points = append(points, trendPoint{Bucket: key, Value: value, Runs: b.runs})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Bucket < points[j].Bucket })
	return points
}
