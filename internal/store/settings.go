package store

import (
	"context"

	"dhaba-pos/internal/models"
)

// GetCompanyConfig retrieves the single company settings row
func (s *Store) GetCompanyConfig(ctx context.Context) (*models.CompanyConfig, error) {
	var cfg models.CompanyConfig
	err := s.db.GetContext(ctx, &cfg, `
		SELECT name, address, phone, email, tax_rate, discount_default, updated_at
		FROM company_settings WHERE id = 1`)
	if err != nil {
		return nil, notFoundOr(err, "company settings", 1)
	}
	return &cfg, nil
}

// UpsertCompanyConfig replaces the company settings
func (s *Store) UpsertCompanyConfig(ctx context.Context, cfg *models.CompanyConfig) error {
	return s.db.QueryRowxContext(ctx, `
		INSERT INTO company_settings (id, name, address, phone, email, tax_rate, discount_default)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address, phone = EXCLUDED.phone,
			email = EXCLUDED.email, tax_rate = EXCLUDED.tax_rate,
			discount_default = EXCLUDED.discount_default, updated_at = NOW()
		RETURNING updated_at`,
		cfg.Name, cfg.Address, cfg.Phone, cfg.Email, cfg.TaxRate, cfg.DiscountDefault,
	).Scan(&cfg.UpdatedAt)
}

// SeedCompanyConfig inserts defaults unless settings already exist
func (s *Store) SeedCompanyConfig(ctx context.Context, cfg models.CompanyConfig) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO company_settings (id, name, address, phone, email, tax_rate, discount_default)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		cfg.Name, cfg.Address, cfg.Phone, cfg.Email, cfg.TaxRate, cfg.DiscountDefault)
	return err
}
