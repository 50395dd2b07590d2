package store

import (
	"context"
	"errors"
	"fmt"

	"dhaba-pos/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrStatusConflict is returned when a KOT is no longer in the expected status.
var ErrStatusConflict = errors.New("kot status changed concurrently")

const kotColumns = `id, kot_number, table_id, room_id, status, created_by, created_at, updated_at`

// KOTFilter narrows ListKOTs. Zero values mean no restriction.
type KOTFilter struct {
	TableID  int64
	Statuses []models.KOTStatus
}

// CreateKOT creates a KOT and its items in a single transaction
func (s *Store) CreateKOT(ctx context.Context, kot *models.KOT) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO kots (table_id, room_id, status, created_by)
			VALUES ($1, $2, $3, $4)
			RETURNING id, kot_number, created_at, updated_at`,
			kot.TableID, kot.RoomID, kot.Status, kot.CreatedBy,
		).Scan(&kot.ID, &kot.KOTNumber, &kot.CreatedAt, &kot.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert kot: %w", err)
		}

		for i := range kot.OrderItems {
			item := &kot.OrderItems[i]
			item.KOTID = kot.ID
			err := tx.QueryRowxContext(ctx, `
				INSERT INTO kot_items (kot_id, product_id, quantity, special_instructions)
				VALUES ($1, $2, $3, $4)
				RETURNING id`,
				item.KOTID, item.ProductID, item.Quantity, item.SpecialInstructions,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("failed to insert kot item: %w", err)
			}
		}
		return nil
	})
}

// GetKOT retrieves a KOT with its items
func (s *Store) GetKOT(ctx context.Context, id int64) (*models.KOT, error) {
	var kot models.KOT
	err := s.db.GetContext(ctx, &kot, "SELECT "+kotColumns+" FROM kots WHERE id = $1", id)
	if err != nil {
		return nil, notFoundOr(err, "kot", id)
	}

	kots := []models.KOT{kot}
	if err := s.loadKOTItems(ctx, kots); err != nil {
		return nil, err
	}
	return &kots[0], nil
}

// ListKOTs retrieves KOTs oldest first
func (s *Store) ListKOTs(ctx context.Context, filter KOTFilter) ([]models.KOT, error) {
	query := "SELECT " + kotColumns + " FROM kots WHERE 1=1"
	var args []interface{}

	if filter.TableID != 0 {
		args = append(args, filter.TableID)
		query += fmt.Sprintf(" AND table_id = $%d", len(args))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, pq.Array(statuses))
		query += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	query += " ORDER BY created_at, id"

	kots := []models.KOT{}
	if err := s.db.SelectContext(ctx, &kots, query, args...); err != nil {
		return nil, err
	}
	if err := s.loadKOTItems(ctx, kots); err != nil {
		return nil, err
	}
	return kots, nil
}

// ListOpenKOTs retrieves the billable KOTs of a table
func (s *Store) ListOpenKOTs(ctx context.Context, tableID int64) ([]models.KOT, error) {
	return s.ListKOTs(ctx, KOTFilter{TableID: tableID, Statuses: models.OpenKOTStatuses})
}

func (s *Store) loadKOTItems(ctx context.Context, kots []models.KOT) error {
	if len(kots) == 0 {
		return nil
	}

	ids := make([]int64, len(kots))
	pos := make(map[int64]int, len(kots))
	for i, k := range kots {
		ids[i] = k.ID
		pos[k.ID] = i
		kots[i].OrderItems = []models.KOTItem{}
	}

	query, args, err := sqlx.In(`
		SELECT id, kot_id, product_id, quantity, special_instructions
		FROM kot_items WHERE kot_id IN (?) ORDER BY kot_id, id`, ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var items []models.KOTItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return fmt.Errorf("failed to load kot items: %w", err)
	}
	for _, item := range items {
		i := pos[item.KOTID]
		kots[i].OrderItems = append(kots[i].OrderItems, item)
	}
	return nil
}

// UpdateKOTStatus moves a KOT from expected to next. It fails with
// ErrStatusConflict if the KOT is no longer in expected.
func (s *Store) UpdateKOTStatus(ctx context.Context, id int64, expected, next models.KOTStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE kots SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`, next, id, expected)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("kot %d: %w", id, ErrStatusConflict)
	}
	return nil
}

// DeleteKOT removes a KOT that has not been closed yet
func (s *Store) DeleteKOT(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM kots WHERE id = $1 AND status <> $2", id, models.KOTStatusClosed)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("kot %d: %w", id, ErrStatusConflict)
	}
	return nil
}

// CloseKOTs closes the given KOTs of a table. Only KOTs that are still open
// are touched; the number actually closed is returned.
func (s *Store) CloseKOTs(ctx context.Context, tableID int64, kotIDs []int64) (int64, error) {
	if len(kotIDs) == 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE kots SET status = $1, updated_at = NOW()
		WHERE table_id = $2 AND id = ANY($3) AND status IN ($4, $5)`,
		models.KOTStatusClosed, tableID, pq.Array(kotIDs),
		models.KOTStatusPreparing, models.KOTStatusReady)
	if err != nil {
		return 0, fmt.Errorf("failed to close kots: %w", err)
	}
	return result.RowsAffected()
}

// CloseTableKOTs closes every open KOT of a table and returns their IDs
func (s *Store) CloseTableKOTs(ctx context.Context, tableID int64) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		UPDATE kots SET status = $1, updated_at = NOW()
		WHERE table_id = $2 AND status IN ($3, $4)
		RETURNING id`,
		models.KOTStatusClosed, tableID, models.KOTStatusPreparing, models.KOTStatusReady)
	if err != nil {
		return nil, fmt.Errorf("failed to close table kots: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
