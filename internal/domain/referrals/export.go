package referrals

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	exportSheet  = "Referrals"
	payoutsSheet = "Payouts"
)

var exportHeaders = []any{
	"ID", "Code", "Referrer user", "Referred email", "Plan", "Status",
	"Commission (USD)", "Trial completed", "Approval due", "Approved at", "Paid at", "Transfer",
}

// WriteExport escribe un .xlsx con todas las comisiones y una hoja de totales por referidor.
func (s *Service) WriteExport(ctx context.Context, w io.Writer) error {
	list, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})

	f := excelize.NewFile()
	defer f.Close()

	// la hoja por default pasa a ser la de comisiones
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return err
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, headerStyle); err != nil {
		return err
	}

	type totals struct {
		count                   int
		pending, approved, paid int64
	}
	perReferrer := map[string]*totals{}

	for i, r := range list {
		row := []any{
			r.ID,
			r.Code,
			r.ReferrerUserID,
			r.ReferredEmail,
			string(r.PlanInterval),
			string(r.CommissionStatus),
			float64(r.CommissionCents) / 100,
			dateCell(&r.TrialCompletedAt),
			ApprovalDue(r.TrialCompletedAt).Format("2006-01-02"),
			dateCell(r.ApprovedAt),
			dateCell(r.PaidAt),
			r.TransferID,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}

		t, ok := perReferrer[r.ReferrerUserID]
		if !ok {
			t = &totals{}
			perReferrer[r.ReferrerUserID] = t
		}
		t.count++
		switch r.CommissionStatus {
		case CommissionPending:
			t.pending += r.CommissionCents
		case CommissionApproved:
			t.approved += r.CommissionCents
		case CommissionPaid:
			t.paid += r.CommissionCents
		}
	}
	_ = f.SetColWidth(exportSheet, "A", "A", 38)
	_ = f.SetColWidth(exportSheet, "C", "D", 30)

	if _, err := f.NewSheet(payoutsSheet); err != nil {
		return err
	}
	payoutHeaders := []any{"Referrer user", "Referrals", "Pending (USD)", "Approved (USD)", "Paid (USD)"}
	if err := f.SetSheetRow(payoutsSheet, "A1", &payoutHeaders); err != nil {
		return err
	}
	if err := f.SetRowStyle(payoutsSheet, 1, 1, headerStyle); err != nil {
		return err
	}

	referrers := make([]string, 0, len(perReferrer))
	for k := range perReferrer {
		referrers = append(referrers, k)
	}
	sort.Strings(referrers)
	for i, uid := range referrers {
		t := perReferrer[uid]
		row := []any{uid, t.count, float64(t.pending) / 100, float64(t.approved) / 100, float64(t.paid) / 100}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(payoutsSheet, cell, &row); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func dateCell(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
