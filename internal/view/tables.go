package view

import (
	"fmt"
	"strconv"

	"github.com/arty021/bad-modems/internal/report"
)

// TableID names one of the three ranked tables.
type TableID string

const (
	TableAmp  TableID = "amp"
	TableNode TableID = "on"
	TableDss  TableID = "dss"
)

// NewBadge marks rows that were not in the previous result.
const NewBadge = "NOVO"

// Table is a rendered ranked table. Renderers replace any previous rows of
// the same table.
type Table struct {
	ID      TableID
	Title   string
	Columns []string
	Rows    []Row
}

// Row is one table line. Class is the percentage badge class of the bad
// count cell, New marks the row for the new-entry highlight.
type Row struct {
	Cells []string
	Class string
	New   bool
}

func badCell(bad, total int, percent float64) string {
	return fmt.Sprintf("%d  %s%%  od %d", bad, strconv.FormatFloat(percent, 'f', -1, 64), total)
}

func nameCell(name string, isNew bool) string {
	if isNew {
		return name + " " + NewBadge
	}
	return name
}

// BuildTables turns a result into the AMP, ON and DSS tables.
func BuildTables(res *report.Result) []Table {
	amp := Table{
		ID:      TableAmp,
		Title:   "Top 10 AMP",
		Columns: []string{"#", "AMP", "Code", "Bad", "USP", "DSP"},
	}
	for _, r := range res.TopAmp {
		code := r.AmpCode
		if code == "" {
			code = "N/A"
		}
		amp.Rows = append(amp.Rows, Row{
			Cells: []string{strconv.Itoa(r.Rank), nameCell(r.AmpName, r.IsNew), code,
				badCell(r.BadCount, r.TotalCount, r.Percentage), strconv.Itoa(r.UspCount), strconv.Itoa(r.DspCount)},
			Class: PercentageClass(r.Percentage),
			New:   r.IsNew,
		})
	}

	node := Table{
		ID:      TableNode,
		Title:   "Top 10 ON",
		Columns: []string{"#", "ON", "Name", "Bad", "USP", "DSP"},
	}
	for _, r := range res.TopOn {
		node.Rows = append(node.Rows, Row{
			Cells: []string{strconv.Itoa(r.Rank), nameCell(r.OnNode, r.IsNew), r.OnName,
				badCell(r.BadCount, r.TotalCount, r.Percentage), strconv.Itoa(r.UspCount), strconv.Itoa(r.DspCount)},
			Class: PercentageClass(r.Percentage),
			New:   r.IsNew,
		})
	}

	dss := Table{
		ID:      TableDss,
		Title:   "Top 20 DSS",
		Columns: []string{"#", "ON", "Name", "Bad"},
	}
	for _, r := range res.TopDss {
		bad := r.BadCount
		if bad == 0 {
			bad = r.DssCount
		}
		dss.Rows = append(dss.Rows, Row{
			Cells: []string{strconv.Itoa(r.Rank), nameCell(r.OnNode, r.IsNew), r.OnName,
				badCell(bad, r.TotalCount, r.Percentage)},
			Class: PercentageClass(r.Percentage),
			New:   r.IsNew,
		})
	}
	return []Table{amp, node, dss}
}
