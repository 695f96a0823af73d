package report

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Budget"

	mmToPixels  = 96 / 25.4
	chartPixels = 512.0
)

// XLSXExporter writes a workbook with the summary lines and the chart on a
// "Budget" sheet, and the grid as numbers on a "Grille" sheet.
type XLSXExporter struct{}

func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSXExporter) Extension() string { return "xlsx" }

func (XLSXExporter) Export(ctx context.Context, doc Document, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummary(f, doc); err != nil {
		return err
	}
	if err := writeTable(f, doc.Table); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, doc Document) error {
	if err := f.SetColWidth(summarySheet, "A", "A", 110); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: TitleFontSize}})
	if err != nil {
		return err
	}

	for i, l := range doc.Lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetCellValue(summarySheet, cell, l.Text); err != nil {
			return fmt.Errorf("write line %d: %w", i+1, err)
		}
		if i == 0 {
			if err := f.SetCellStyle(summarySheet, cell, cell, bold); err != nil {
				return err
			}
		}
	}

	img := doc.Image
	if img == nil {
		return nil
	}
	// The picture goes below the last line, leaving one empty row.
	anchor, _ := excelize.CoordinatesToCellName(1, len(doc.Lines)+2)
	if err := f.AddPictureFromBytes(summarySheet, anchor, &excelize.Picture{
		Extension: ".png",
		File:      img.PNG,
		Format: &excelize.GraphicOptions{
			ScaleX:          img.W * mmToPixels / chartPixels,
			ScaleY:          img.H * mmToPixels / chartPixels,
			LockAspectRatio: true,
			AltText:         "chart",
		},
	}); err != nil {
		return fmt.Errorf("add chart picture: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, t Table) error {
	if len(t.Header) == 0 {
		return nil
	}
	if _, err := f.NewSheet(GridSheet); err != nil {
		return fmt.Errorf("create grid sheet: %w", err)
	}
	if err := f.SetSheetRow(GridSheet, "A1", &t.Header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(GridSheet, cell, &row); err != nil {
			return fmt.Errorf("write grid row %d: %w", i+1, err)
		}
	}
	format := "#,##0.00"
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(t.Header), len(t.Rows)+1)
	return f.SetCellStyle(GridSheet, "B2", last, money)
}
