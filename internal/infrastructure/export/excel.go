// Package export renders stored test cases as an Excel workbook.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"testbrain/internal/domain/entity"
)

const sheet = "Test cases"

var headers = []string{"No.", "Description", "Steps", "Expected results", "Status"}

// FileName is test_cases_<yyyymmdd_hhmmss>_<n>_cases.xlsx.
func FileName(now time.Time, n int) string {
	return fmt.Sprintf("test_cases_%s_%d_cases.xlsx", now.Format("20060102_150405"), n)
}

// TestCasesXLSX writes one row per case under a bold header row.
func TestCasesXLSX(cases []*entity.TestCase) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", "E", 30); err != nil {
		return nil, err
	}

	for i, tc := range cases {
		row := i + 2
		cell := "A" + strconv.Itoa(row)
		values := []any{i + 1, tc.Description, tc.TestSteps, tc.ExpectedResults, string(tc.Status)}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		if err := f.SetCellStyle(sheet, cell, "E"+strconv.Itoa(row), wrap); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
