package main

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arty021/bad-modems/internal/charts"
	"github.com/arty021/bad-modems/internal/report"
)

// handleChart serves /charts/:city/:kind where kind may carry a .png suffix.
func handleChart(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("city")
		city, err := report.ParseCity(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "Invalid city: " + raw})
			return
		}
		kind, err := charts.ParseKind(strings.TrimSuffix(c.Param("kind"), ".png"))
		if err != nil {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "chart must be amp|on|dss|health"})
			return
		}

		res, err := loadLatest(a.db, city)
		if err != nil {
			if errors.Is(err, errNoResult) {
				c.JSON(http.StatusNotFound, errResponse{Success: false, Error: "No data available for this city"})
				return
			}
			c.JSON(http.StatusInternalServerError, errResponse{Success: false, Error: err.Error()})
			return
		}

		var buf bytes.Buffer
		if err := charts.Render(kind, res, &buf); err != nil {
			if errors.Is(err, charts.ErrNoData) {
				c.JSON(http.StatusNotFound, errResponse{Success: false, Error: "Nothing to draw for this chart"})
				return
			}
			c.JSON(http.StatusInternalServerError, errResponse{Success: false, Error: err.Error()})
			return
		}
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	}
}
