package store

import (
	"context"
	"fmt"

	"dhaba-pos/internal/models"
)

// revenueWhere builds the shared WHERE clause for revenue queries.
func revenueWhere(filter models.RevenueFilter) (string, []interface{}) {
	where := " WHERE status = $1 AND deleted_at IS NULL"
	args := []interface{}{models.OrderStatusCompleted}

	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	if filter.PaymentMethod != "" {
		args = append(args, filter.PaymentMethod)
		where += fmt.Sprintf(" AND payment_method = $%d", len(args))
	}
	return where, args
}

// RevenueTotal sums revenue over the filtered orders
func (s *Store) RevenueTotal(ctx context.Context, filter models.RevenueFilter) (*models.RevenueTotal, error) {
	where, args := revenueWhere(filter)

	var total models.RevenueTotal
	err := s.db.GetContext(ctx, &total, `
		SELECT COUNT(*) AS order_count,
			COALESCE(SUM(subtotal), 0) AS subtotal,
			COALESCE(SUM(discount_amount), 0) AS total_discount,
			COALESCE(SUM(tax_amount), 0) AS total_tax,
			COALESCE(SUM(grand_total), 0) AS total_revenue,
			COALESCE(ROUND(AVG(grand_total), 2), 0) AS average_order_value
		FROM orders`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue total: %w", err)
	}
	return &total, nil
}

// DailyRevenue groups revenue by calendar day, oldest first
func (s *Store) DailyRevenue(ctx context.Context, filter models.RevenueFilter) ([]models.DailyRevenue, error) {
	where, args := revenueWhere(filter)

	days := []models.DailyRevenue{}
	err := s.db.SelectContext(ctx, &days, `
		SELECT TO_CHAR(DATE(created_at), 'YYYY-MM-DD') AS date,
			COUNT(*) AS order_count,
			SUM(grand_total) AS revenue
		FROM orders`+where+`
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily revenue: %w", err)
	}
	return days, nil
}

// RevenueByPaymentMethod groups revenue by payment method
func (s *Store) RevenueByPaymentMethod(ctx context.Context, filter models.RevenueFilter) ([]models.PaymentMethodRevenue, error) {
	where, args := revenueWhere(filter)

	rows := []models.PaymentMethodRevenue{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT payment_method, COUNT(*) AS order_count, SUM(grand_total) AS revenue
		FROM orders`+where+`
		GROUP BY payment_method
		ORDER BY revenue DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment method revenue: %w", err)
	}
	return rows, nil
}

// DiscountSummary groups discounted orders by type and reason
func (s *Store) DiscountSummary(ctx context.Context, filter models.RevenueFilter) ([]models.DiscountSummary, error) {
	where, args := revenueWhere(filter)

	rows := []models.DiscountSummary{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT discount_type, discount_reason, COUNT(*) AS order_count,
			SUM(discount_amount) AS total_discount
		FROM orders`+where+` AND discount_amount > 0
		GROUP BY discount_type, discount_reason
		ORDER BY total_discount DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query discount summary: %w", err)
	}
	return rows, nil
}

// TaxSummary groups collected tax by rate
func (s *Store) TaxSummary(ctx context.Context, filter models.RevenueFilter) ([]models.TaxSummary, error) {
	where, args := revenueWhere(filter)

	rows := []models.TaxSummary{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT tax_rate, COUNT(*) AS order_count,
			SUM(subtotal - discount_amount) AS taxable_amount,
			SUM(tax_amount) AS tax_amount
		FROM orders`+where+`
		GROUP BY tax_rate
		ORDER BY tax_rate`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax summary: %w", err)
	}
	return rows, nil
}

// TaxByPaymentMethod groups collected tax by payment method
func (s *Store) TaxByPaymentMethod(ctx context.Context, filter models.RevenueFilter) ([]models.PaymentMethodTax, error) {
	where, args := revenueWhere(filter)

	rows := []models.PaymentMethodTax{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT payment_method, COUNT(*) AS order_count,
			SUM(subtotal - discount_amount) AS taxable_amount,
			SUM(tax_amount) AS tax_amount
		FROM orders`+where+`
		GROUP BY payment_method
		ORDER BY payment_method`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax by payment method: %w", err)
	}
	return rows, nil
}
