// Package export renders extraction results as XLSX workbooks.
package export

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/enerdoc/docingest/internal/pipeline"
)

// Service produces XLSX bytes from extraction results. It is stateless.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportTablesXLSX writes every extracted table to a workbook, one sheet per
// page. Each table carries a provenance header (backend, accuracy) so
// reviewers can judge which extraction produced it.
func (s *Service) ExportTablesXLSX(res *pipeline.ExtractionResult) ([]byte, error) {
	f := excelize.NewFile()

	byPage := make(map[int]int) // page -> next free row on its sheet
	for _, t := range res.Tables {
		sheet := fmt.Sprintf("Page %d", t.PageNumber)
		if index, _ := f.GetSheetIndex(sheet); index == -1 {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, err
			}
			byPage[t.PageNumber] = 1
		}

		row := byPage[t.PageNumber]
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, fmt.Sprintf("backend: %s", t.BackendName))
		if t.Accuracy > 0 {
			write(2, fmt.Sprintf("accuracy: %.2f", t.Accuracy))
		}
		row++

		for _, cells := range t.Rows {
			for ci, cell := range cells {
				c, _ := excelize.CoordinatesToCellName(ci+1, row)
				_ = f.SetCellValue(sheet, c, cell)
			}
			row++
		}
		row++ // blank line between tables
		byPage[t.PageNumber] = row
	}

	// Summary sheet with provenance flags.
	const summary = "Sheet1"
	summaryRows := [][]any{
		{"strategy", res.StrategyUsed},
		{"usedRecognition", res.UsedRecognition},
		{"enhancementApplied", res.EnhancementApplied},
		{"documentType", string(res.Classification.DocumentType)},
		{"confidence", string(res.Classification.Confidence)},
		{"tables", len(res.Tables)},
	}
	for ri, cols := range summaryRows {
		for ci, v := range cols {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+1)
			_ = f.SetCellValue(summary, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok", "tables", len(res.Tables), "bytes", buf.Len())
	return buf.Bytes(), nil
}
