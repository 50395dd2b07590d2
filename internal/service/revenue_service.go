package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/util"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// RevenueService produces revenue reports over completed orders
type RevenueService struct {
	store  RevenueStore
	logger *zap.Logger
}

// NewRevenueService creates a new revenue service
func NewRevenueService(store RevenueStore) *RevenueService {
	return &RevenueService{store: store, logger: util.Named("revenue")}
}

// RevenueReport bundles every report for one filter
type RevenueReport struct {
	Filter         models.RevenueFilter          `json:"-"`
	Total          *models.RevenueTotal          `json:"total"`
	Daily          []models.DailyRevenue         `json:"daily"`
	PaymentMethods []models.PaymentMethodRevenue `json:"paymentMethods"`
	Discounts      []models.DiscountSummary      `json:"discounts"`
	Taxes          []models.TaxSummary           `json:"taxes"`
	TaxesByPayment []models.PaymentMethodTax     `json:"taxesByPaymentMethod"`
	GeneratedAt    time.Time                     `json:"generatedAt"`
}

// ParseRevenueFilter builds a filter from query values. Dates use YYYY-MM-DD
// and endDate is inclusive.
func ParseRevenueFilter(startDate, endDate, paymentMethod string) (models.RevenueFilter, error) {
	var filter models.RevenueFilter

	if startDate != "" {
		t, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return filter, invalid("startDate", "expected YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if endDate != "" {
		t, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return filter, invalid("endDate", "expected YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1)
		filter.EndDate = &t
	}
	if filter.StartDate != nil && filter.EndDate != nil && !filter.StartDate.Before(*filter.EndDate) {
		return filter, invalid("endDate", "must not be before startDate")
	}

	switch paymentMethod {
	case "", models.PaymentCash, models.PaymentCard, models.PaymentUPI, models.PaymentOnline:
		filter.PaymentMethod = paymentMethod
	default:
		return filter, invalid("paymentMethod", "unknown payment method %q", paymentMethod)
	}
	return filter, nil
}

func (s *RevenueService) Total(ctx context.Context, filter models.RevenueFilter) (*models.RevenueTotal, error) {
	return s.store.RevenueTotal(ctx, filter)
}

func (s *RevenueService) Daily(ctx context.Context, filter models.RevenueFilter) ([]models.DailyRevenue, error) {
	return s.store.DailyRevenue(ctx, filter)
}

func (s *RevenueService) ByPaymentMethod(ctx context.Context, filter models.RevenueFilter) ([]models.PaymentMethodRevenue, error) {
	return s.store.RevenueByPaymentMethod(ctx, filter)
}

func (s *RevenueService) Discounts(ctx context.Context, filter models.RevenueFilter) ([]models.DiscountSummary, error) {
	return s.store.DiscountSummary(ctx, filter)
}

func (s *RevenueService) Taxes(ctx context.Context, filter models.RevenueFilter) ([]models.TaxSummary, error) {
	return s.store.TaxSummary(ctx, filter)
}

func (s *RevenueService) TaxesByPaymentMethod(ctx context.Context, filter models.RevenueFilter) ([]models.PaymentMethodTax, error) {
	return s.store.TaxByPaymentMethod(ctx, filter)
}

// Report collects every revenue report for filter
func (s *RevenueService) Report(ctx context.Context, filter models.RevenueFilter) (*RevenueReport, error) {
	ctx, span := util.StartSpan(ctx, "RevenueService.Report")
	defer span.End()

	report := &RevenueReport{Filter: filter, GeneratedAt: time.Now()}
	var err error

	if report.Total, err = s.store.RevenueTotal(ctx, filter); err != nil {
		return nil, util.SpanError(span, err)
	}
	if report.Daily, err = s.store.DailyRevenue(ctx, filter); err != nil {
		return nil, util.SpanError(span, err)
	}
	if report.PaymentMethods, err = s.store.RevenueByPaymentMethod(ctx, filter); err != nil {
		return nil, util.SpanError(span, err)
	}
	if report.Discounts, err = s.store.DiscountSummary(ctx, filter); err != nil {
		return nil, util.SpanError(span, err)
	}
	if report.Taxes, err = s.store.TaxSummary(ctx, filter); err != nil {
		return nil, util.SpanError(span, err)
	}
	if report.TaxesByPayment, err = s.store.TaxByPaymentMethod(ctx, filter); err != nil {
		return nil, util.SpanError(span, err)
	}
	return report, nil
}

// ExportXLSX writes the revenue report as an Excel workbook with one sheet
// per report.
func (s *RevenueService) ExportXLSX(ctx context.Context, filter models.RevenueFilter, w io.Writer) error {
	report, err := s.Report(ctx, filter)
	if err != nil {
		return err
	}

	f, err := BuildRevenueWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	s.logger.Info("Revenue workbook exported", zap.Int("days", len(report.Daily)))
	return nil
}

// BuildRevenueWorkbook lays the report out as an excelize workbook
func BuildRevenueWorkbook(report *RevenueReport) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	sheets := []struct {
		name    string
		headers []interface{}
		rows    [][]interface{}
	}{
		{"Summary", []interface{}{"Metric", "Value"}, summaryRows(report)},
		{"Daily", []interface{}{"Date", "Orders", "Revenue"}, dailyRows(report.Daily)},
		{"Payment Methods", []interface{}{"Payment Method", "Orders", "Revenue"}, paymentRows(report.PaymentMethods)},
		{"Discounts", []interface{}{"Type", "Reason", "Orders", "Total Discount"}, discountRows(report.Discounts)},
		{"Taxes", []interface{}{"Tax Rate (%)", "Orders", "Taxable Amount", "Tax"}, taxRows(report.Taxes)},
		{"Taxes by Payment", []interface{}{"Payment Method", "Orders", "Taxable Amount", "Tax"}, paymentTaxRows(report.TaxesByPayment)},
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			f.Close()
			return nil, err
		}

		if err := writeSheet(f, sh.name, header, sh.headers, sh.rows); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, headers []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}

	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 20)
}

func summaryRows(r *RevenueReport) [][]interface{} {
	t := r.Total
	if t == nil {
		t = &models.RevenueTotal{}
	}
	rows := [][]interface{}{
		{"Orders", t.OrderCount},
		{"Subtotal", t.Subtotal.InexactFloat64()},
		{"Total Discount", t.TotalDiscount.InexactFloat64()},
		{"Total Tax", t.TotalTax.InexactFloat64()},
		{"Total Revenue", t.TotalRevenue.InexactFloat64()},
		{"Average Order Value", t.AverageOrderValue.InexactFloat64()},
	}
	if r.Filter.StartDate != nil {
		rows = append(rows, []interface{}{"From", r.Filter.StartDate.Format(dateLayout)})
	}
	if r.Filter.EndDate != nil {
		rows = append(rows, []interface{}{"To", r.Filter.EndDate.AddDate(0, 0, -1).Format(dateLayout)})
	}
	if r.Filter.PaymentMethod != "" {
		rows = append(rows, []interface{}{"Payment Method", r.Filter.PaymentMethod})
	}
	return append(rows, []interface{}{"Generated", r.GeneratedAt.Format("2006-01-02 15:04")})
}

func dailyRows(days []models.DailyRevenue) [][]interface{} {
	rows := make([][]interface{}, 0, len(days))
	for _, d := range days {
		rows = append(rows, []interface{}{d.Date, d.OrderCount, d.Revenue.InexactFloat64()})
	}
	return rows
}

func paymentRows(methods []models.PaymentMethodRevenue) [][]interface{} {
	rows := make([][]interface{}, 0, len(methods))
	for _, m := range methods {
		rows = append(rows, []interface{}{m.PaymentMethod, m.OrderCount, m.Revenue.InexactFloat64()})
	}
	return rows
}

func discountRows(discounts []models.DiscountSummary) [][]interface{} {
	rows := make([][]interface{}, 0, len(discounts))
	for _, d := range discounts {
		rows = append(rows, []interface{}{d.DiscountType, d.DiscountReason, d.OrderCount, d.TotalDiscount.InexactFloat64()})
	}
	return rows
}

func taxRows(taxes []models.TaxSummary) [][]interface{} {
	rows := make([][]interface{}, 0, len(taxes))
	for _, t := range taxes {
		rows = append(rows, []interface{}{t.TaxRate.InexactFloat64(), t.OrderCount, t.TaxableAmount.InexactFloat64(), t.TaxAmount.InexactFloat64()})
	}
	return rows
}

func paymentTaxRows(taxes []models.PaymentMethodTax) [][]interface{} {
	rows := make([][]interface{}, 0, len(taxes))
	for _, t := range taxes {
		rows = append(rows, []interface{}{t.PaymentMethod, t.OrderCount, t.TaxableAmount.InexactFloat64(), t.TaxAmount.InexactFloat64()})
	}
	return rows
}
