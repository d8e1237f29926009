package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/arty021/bad-modems/internal/report"
)

const (
	sheetAmp = "Top 10 AMP"
	sheetOn  = "Top 10 ON"
	sheetDss = "Top 20 DSS"
)

// handleExport serves the latest result of a city as an Excel workbook at
// /export/:city, where city may carry an .xlsx suffix.
func handleExport(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSuffix(c.Param("city"), ".xlsx")
		city, err := report.ParseCity(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errResponse{Success: false, Error: "Invalid city: " + raw})
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

		f, err := buildWorkbook(res)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errResponse{Success: false, Error: err.Error()})
			return
		}
		defer f.Close()

		name := fmt.Sprintf("Bad modemi %s na dan %s.xlsx", city.DisplayName(), res.Timestamp.Local().Format("02-01-2006_15-04-05"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Status(http.StatusOK)
		if err := f.Write(c.Writer); err != nil {
			a.log.Warn("writing workbook failed", zap.String("city", string(city)), zap.Error(err))
		}
	}
}

// buildWorkbook lays the three ranked tables out on one sheet each, with the
// report totals under the AMP table.
func buildWorkbook(res *report.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetAmp); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetOn, sheetDss} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	amp := [][]interface{}{{"Rank", "AMP_NAME", "AMP_CODE", "Bad_Count", "Total_Count", "Percentage", "USP_Count", "DSP_Count", "New"}}
	for _, r := range res.TopAmp {
		amp = append(amp, []interface{}{r.Rank, r.AmpName, r.AmpCode, r.BadCount, r.TotalCount, r.Percentage, r.UspCount, r.DspCount, newMark(r.IsNew)})
	}
	if err := writeSheet(f, sheetAmp, amp, header); err != nil {
		return nil, err
	}
	totals := [][]interface{}{
		{"Ukupan broj modema:", res.Summary.TotalModems},
		{"Total Count USP+DSP:", res.Summary.UspDspCount},
		{"Total Count USP+DSP+DSS:", res.Summary.UspDspDssCount},
	}
	for i, row := range totals {
		cell, err := excelize.CoordinatesToCellName(1, len(amp)+2+i)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetAmp, cell, &row); err != nil {
			return nil, err
		}
	}

	on := [][]interface{}{{"Rank", "ON_NODE", "ON_NAME", "Bad_Count", "Total_Count", "Percentage", "USP_Count", "DSP_Count", "New"}}
	for _, r := range res.TopOn {
		on = append(on, []interface{}{r.Rank, r.OnNode, r.OnName, r.BadCount, r.TotalCount, r.Percentage, r.UspCount, r.DspCount, newMark(r.IsNew)})
	}
	if err := writeSheet(f, sheetOn, on, header); err != nil {
		return nil, err
	}

	dss := [][]interface{}{{"Rank", "ON_NODE", "ON_NAME", "DSS_Count", "Total_Count", "Percentage", "New"}}
	for _, r := range res.TopDss {
		bad := r.BadCount
		if bad == 0 {
			bad = r.DssCount
		}
		dss = append(dss, []interface{}{r.Rank, r.OnNode, r.OnName, bad, r.TotalCount, r.Percentage, newMark(r.IsNew)})
	}
	if err := writeSheet(f, sheetDss, dss, header); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "C", 28); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "D", last, 13)
}

func newMark(v bool) string {
	if v {
		return "NOVO"
	}
	return ""
}
