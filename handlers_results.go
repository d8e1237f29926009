package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arty021/bad-modems/internal/report"
)

const jsonContentType = "application/json; charset=utf-8"

func handleUpload(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxUpload)

		fh, err := c.FormFile("file")
		if err != nil {
			if isTooLarge(err) {
				c.JSON(http.StatusRequestEntityTooLarge, errResponse{Success: false, Error: "File too large"})
				return
			}
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "No file provided"})
			return
		}

		rawCity := strings.TrimSpace(c.PostForm("city"))
		if rawCity == "" {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "No city specified"})
			return
		}
		city, err := report.ParseCity(rawCity)
		if err != nil {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "Invalid city: " + rawCity})
			return
		}
		if fh.Filename == "" {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "No file selected"})
			return
		}
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".csv") {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "Invalid file type. Please upload a CSV file."})
			return
		}

		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, errResponse{Success: false, Error: "Error processing file: " + err.Error()})
			return
		}
		defer f.Close()

		res, err := report.Analyze(f)
		if err != nil {
			a.log.Warn("analysis failed", zap.String("city", string(city)), zap.String("file", fh.Filename), zap.Error(err))
			c.JSON(http.StatusInternalServerError, errResponse{Success: false, Error: "Error processing file: " + err.Error()})
			return
		}
		res.Timestamp = time.Now().UTC()
		res.City = city

		run, err := saveResult(a.db, city, fh.Filename, res)
		if err != nil {
			a.log.Error("saving result failed", zap.String("city", string(city)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, errResponse{Success: false, Error: "Error processing file: " + err.Error()})
			return
		}

		a.cache.set(c.Request.Context(), city, run.ResultJSON)
		a.events.publishAnalysis(city, res)
		a.hub.broadcast(city, res.Timestamp)

		a.log.Info("report analyzed",
			zap.String("city", string(city)),
			zap.String("file", fh.Filename),
			zap.Uint64("run_id", run.ID),
			zap.Int("total_modems", res.Summary.TotalModems),
			zap.Int("new_entries", run.NewEntries),
		)
		c.JSON(http.StatusOK, res)
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func handleLatest(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("city")
		city, err := report.ParseCity(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "Invalid city: " + raw})
			return
		}

		if body, ok := a.cache.get(c.Request.Context(), city); ok {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, jsonContentType, body)
			return
		}

		body, err := loadLatestRaw(a.db, city)
		if err != nil {
			if errors.Is(err, errNoResult) {
				c.JSON(http.StatusNotFound, errResponse{Success: false, Error: "No data available for this city"})
				return
			}
			c.JSON(http.StatusInternalServerError, errResponse{Success: false, Error: err.Error()})
			return
		}
		if a.cache != nil {
			c.Header("X-Cache", "MISS")
			a.cache.set(c.Request.Context(), city, body)
		}
		c.Data(http.StatusOK, jsonContentType, body)
	}
}

func handleCities(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		latest, err := loadLatestTimes(a.db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errResponse{Success: false, Error: err.Error()})
			return
		}
		cities := make([]cityInfo, 0, len(report.Cities))
		for _, city := range report.Cities {
			info := cityInfo{ID: city, Name: city.DisplayName()}
			if at, ok := latest[city]; ok {
				at := at.UTC()
				info.HasData = true
				info.LastUpload = &at
			}
			cities = append(cities, info)
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"default": report.DefaultCity,
			"cities":  cities,
		})
	}
}

func handleHealthz(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := a.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "live_clients": a.hub.count()})
	}
}
