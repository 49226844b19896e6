package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/debtflow/debtflow-api/internal/models"
	"github.com/debtflow/debtflow-api/internal/repository"
)

const exportPageSize = 10000

type ExportService struct {
	caseRepo repository.CaseRepository
	statsSvc *StatsService
}

func NewExportService(caseRepo repository.CaseRepository, statsSvc *StatsService) *ExportService {
	return &ExportService{caseRepo: caseRepo, statsSvc: statsSvc}
}

// ExportCasesCSV renders the organization's case book as CSV
func (s *ExportService) ExportCasesCSV(ctx context.Context, orgID string) ([]byte, string, error) {
	cases, err := s.fetchCases(ctx, orgID)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Case Export", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Reference", "Debtor", "Status", "Original Amount", "Current Balance", "Due Date", "Created"})

	for i := range cases {
		c := &cases[i]
		_ = writer.Write([]string{
			c.Reference(),
			c.Debtor.DisplayName(),
			c.Status,
			c.OriginalAmount.StringFixed(2),
			c.CurrentBalance.StringFixed(2),
			formatDate(c.DueDate),
			c.CreatedAt.Format("2006-01-02"),
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("cases_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportCasesXLSX renders the organization's case book as a spreadsheet with
// a summary block on top.
func (s *ExportService) ExportCasesXLSX(ctx context.Context, orgID string) ([]byte, string, error) {
	cases, err := s.fetchCases(ctx, orgID)
	if err != nil {
		return nil, "", err
	}

	overview, err := s.statsSvc.Overview(ctx, orgID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Cases"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Case Export")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Open Cases")
	_ = f.SetCellValue(sheet, "B3", overview.OpenCases)
	_ = f.SetCellValue(sheet, "A4", "Paid Cases")
	_ = f.SetCellValue(sheet, "B4", overview.PaidCases)
	_ = f.SetCellValue(sheet, "A5", "Total Outstanding")
	_ = f.SetCellValue(sheet, "B5", overview.TotalOutstanding.InexactFloat64())
	_ = f.SetCellValue(sheet, "A6", "Collected This Month")
	_ = f.SetCellValue(sheet, "B6", overview.CollectedThisMonth.InexactFloat64())

	columns := []string{"Reference", "Debtor", "Status", "Original Amount", "Current Balance", "Due Date", "Created"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 8)
		_ = f.SetCellValue(sheet, cell, col)
	}

	for i := range cases {
		c := &cases[i]
		row := i + 9
		values := []interface{}{
			c.Reference(),
			c.Debtor.DisplayName(),
			c.Status,
			c.OriginalAmount.InexactFloat64(),
			c.CurrentBalance.InexactFloat64(),
			formatDate(c.DueDate),
			c.CreatedAt.Format("2006-01-02"),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("cases_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) fetchCases(ctx context.Context, orgID string) ([]models.Case, error) {
	query := repository.NewListQuery()
	query.PerPage = exportPageSize
	query.SortBy = "created_at"
	query.SortDir = "desc"

	cases, _, err := s.caseRepo.List(ctx, orgID, query)
	return cases, err
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
