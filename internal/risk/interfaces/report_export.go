package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	risk "heatwatch/internal/risk/domain"
)

const (
	detailSheet  = "Detailed Risks"
	summarySheet = "Risk Summary"

	dateLayout   = "2006-01-02"
	clockLayout  = "03:04 PM"
	stampLayout  = time.RFC3339
	minColWidth  = 10.0
	colWidthSlop = 2.0
)

// BuildRiskXLSX renders the run report workbook: every classified hour on the
// detail sheet and every detected window on the summary sheet. Timestamps are
// split into date and 12-hour clock columns with the zone alongside, the form
// operators read these reports in.
func BuildRiskXLSX(hourly []risk.HourlyRiskFlags, windows []risk.RiskWindow) ([]byte, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", detailSheet)
	f.NewSheet(summarySheet)

	detailRows := [][]any{{
		"Date", "Time", "Time Zone", "Site",
		"Temperature (F)", "Humidity (%)", "Wind Speed (mph)",
		"Temperature Risk", "Wind Risk", "Humidity Risk", "Any Risk Condition",
		"Risk Triggers",
	}}
	for _, row := range hourly {
		detailRows = append(detailRows, []any{
			row.TS.Format(dateLayout),
			row.TS.Format(clockLayout),
			row.TS.Location().String(),
			row.SiteID,
			row.TemperatureF,
			row.HumidityPct,
			row.WindMPH,
			row.TemperatureBreach,
			row.WindBreach,
			row.HumidityBreach,
			row.AnyBreach,
			row.TriggerLabel,
		})
	}
	if err := writeSheet(f, detailSheet, detailRows); err != nil {
		return nil, err
	}

	summaryRows := [][]any{{
		"Site", "Start Date", "Start Time", "End Date", "End Time", "Timezone",
		"Duration (hours)", "Peak Temperature (F)", "Peak Wind Speed (mph)",
		"Minimum Humidity (%)", "Risk Triggers", "Risk Score",
	}}
	for _, window := range windows {
		summaryRows = append(summaryRows, []any{
			window.SiteID,
			window.StartTime.Format(dateLayout),
			window.StartTime.Format(clockLayout),
			window.EndTime.Format(dateLayout),
			window.EndTime.Format(clockLayout),
			window.StartTime.Location().String(),
			window.DurationHours,
			window.PeakTempF,
			window.PeakWindMPH,
			window.MinHumidityPct,
			window.Triggers,
			window.RiskScore,
		})
	}
	if err := writeSheet(f, summarySheet, summaryRows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeSheet fills a sheet from row slices and sizes each column to its
// longest cell.
func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	widths := make([]float64, 0)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
			for len(widths) <= c {
				widths = append(widths, minColWidth)
			}
			if w := float64(len(fmt.Sprint(value))) + colWidthSlop; w > widths[c] {
				widths[c] = w
			}
		}
	}
	for c, width := range widths {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

// BuildRiskPDF renders a compact PDF: the per-site snapshot table followed by
// the detected windows.
func BuildRiskPDF(windows []risk.RiskWindow, snapshots []risk.SiteRiskSnapshot, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Weather Risk Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(stampLayout)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Site", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Risk Score", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Next Window Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Starts In (h)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, snapshot := range snapshots {
		start, hours := "-", "-"
		if snapshot.NextWindowStart != nil {
			start = snapshot.NextWindowStart.Format(stampLayout)
		}
		if snapshot.HoursUntilStart != nil {
			hours = fmt.Sprintf("%d", *snapshot.HoursUntilStart)
		}
		pdf.CellFormat(50, 6, snapshot.SiteID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", snapshot.RiskScore), "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 6, start, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, hours, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Site", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "End", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Duration", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Triggers", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Score", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, window := range windows {
		pdf.CellFormat(40, 6, window.SiteID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, window.StartTime.Format(stampLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, window.EndTime.Format(stampLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d h", window.DurationHours), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 6, window.Triggers, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", window.RiskScore), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
