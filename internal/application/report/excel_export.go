package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const reconciliationSheet = "Reconciliation"

var reconciliationHeaders = []string{
	"Deal", "SF ID", "Status", "Internal Stage", "External Stage", "Stage Match",
	"Deal Value (Int)", "Deal Value (Ext)", "Deal Value Var",
	"Fee (Int)", "Fee (Ext)", "Fee Var",
	"AGCI (Int)", "AGCI (Ext)", "AGCI Var",
	"House (Int)", "House (Ext)", "House Var",
	"Booked", "Closed",
}

// WriteReconciliationXLSX renders a reconciliation report as an xlsx
// workbook: one row per comparison plus the totals row over the filtered
// set, mirroring the grid.
func WriteReconciliationXLSX(report *ReconciliationReport, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(reconciliationSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	header := make([]interface{}, len(reconciliationHeaders))
	for i, h := range reconciliationHeaders {
		header[i] = h
	}
	if err := setRow(f, 1, header); err != nil {
		return err
	}

	for i := range report.Rows {
		r := &report.Rows[i]
		cells := []interface{}{
			r.DealName,
			r.SFID,
			string(r.Resolution),
			r.InternalStage,
			r.ExternalStage,
			r.StageMatch,
			r.DealValue.Internal.Float64(),
			r.DealValue.External.Float64(),
			r.DealValue.Variance.Float64(),
			r.Fee.Internal.Float64(),
			r.Fee.External.Float64(),
			r.Fee.Variance.Float64(),
			r.AGCI.Internal.Float64(),
			r.AGCI.External.Float64(),
			r.AGCI.Variance.Float64(),
			r.House.Internal.Float64(),
			r.House.External.Float64(),
			r.House.Variance.Float64(),
			formatDate(r.BookedDate),
			formatDate(r.ClosedDate),
		}
		if err := setRow(f, i+2, cells); err != nil {
			return err
		}
	}

	totalsRow := len(report.Rows) + 2
	totals := []interface{}{
		fmt.Sprintf("Total (%d deals)", report.Totals.Deals),
		"", "", "", "", "",
		report.Totals.DealValue.Internal.Float64(),
		report.Totals.DealValue.External.Float64(),
		report.Totals.DealValue.Variance.Float64(),
		report.Totals.Fee.Internal.Float64(),
		report.Totals.Fee.External.Float64(),
		report.Totals.Fee.Variance.Float64(),
		report.Totals.AGCI.Internal.Float64(),
		report.Totals.AGCI.External.Float64(),
		report.Totals.AGCI.Variance.Float64(),
		report.Totals.House.Internal.Float64(),
		report.Totals.House.External.Float64(),
		report.Totals.House.Variance.Float64(),
		"", "",
	}
	if err := setRow(f, totalsRow, totals); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := f.SetSheetRow(reconciliationSheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
