package service

import (
	"fmt"

	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/repository"

	"github.com/xuri/excelize/v2"
)

// ReportService renders back-office exports.
type ReportService struct {
	commissionRepo  repository.CommissionRepository
	distributorRepo repository.DistributorRepository
}

// NewReportService creates the report service.
func NewReportService(commissionRepo repository.CommissionRepository, distributorRepo repository.DistributorRepository) *ReportService {
	return &ReportService{
		commissionRepo:  commissionRepo,
		distributorRepo: distributorRepo,
	}
}

// ExportCommissionRun renders every commission record of one period as an
// XLSX workbook and returns the file bytes.
func (s *ReportService) ExportCommissionRun(periodKey string) ([]byte, error) {
	records, _, err := s.commissionRepo.List(repository.CommissionListFilter{PeriodKey: periodKey})
	if err != nil {
		return nil, err
	}

	codeByID := make(map[uint]string)
	for _, record := range records {
		if _, ok := codeByID[record.EarnerID]; ok {
			continue
		}
		d, err := s.distributorRepo.GetByID(record.EarnerID)
		if err != nil {
			return nil, err
		}
		if d != nil {
			codeByID[record.EarnerID] = d.Code
		}
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warnw("report_workbook_close_failed", "error", err)
		}
	}()
	sheet := "Commissions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{"Record ID", "Earner Code", "Type", "Amount", "Basis Cents", "Basis Volume", "Rate %", "Status", "Reason", "Source", "Plan Version"}
	for col, title := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for row, record := range records {
		values := []interface{}{
			record.ID,
			codeByID[record.EarnerID],
			record.Type,
			record.AmountCents.String(),
			int64(record.BasisCents),
			record.BasisVolume,
			record.RatePercent,
			record.Status,
			record.ReasonCode,
			record.SourceEventKey,
			record.PlanVersion,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	logger.Infow("commission_run_exported", "period_key", periodKey, "records", len(records))
	return buf.Bytes(), nil
}

// ExportFilename names the download for one period.
func (s *ReportService) ExportFilename(periodKey string) string {
	return fmt.Sprintf("commission-run-%s.xlsx", periodKey)
}
