package store

import (
	"context"

	"dhaba-pos/internal/models"
)

// ListRooms retrieves active rooms with their tables. A table with open KOTs
// is reported as occupied regardless of its stored status.
func (s *Store) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms := []models.Room{}
	if err := s.db.SelectContext(ctx, &rooms,
		"SELECT id, room_name, is_active FROM rooms WHERE is_active ORDER BY id"); err != nil {
		return nil, err
	}

	var tables []models.Table
	err := s.db.SelectContext(ctx, &tables, `
		SELECT t.id, t.room_id, t.table_number, t.capacity,
			CASE WHEN COUNT(k.id) > 0 THEN 'occupied' ELSE t.status END AS status,
			COUNT(k.id) AS open_kots
		FROM dining_tables t
		LEFT JOIN kots k ON k.table_id = t.id AND k.status IN ('preparing', 'ready')
		GROUP BY t.id
		ORDER BY t.room_id, t.id`)
	if err != nil {
		return nil, err
	}

	byRoom := make(map[int64][]models.Table, len(rooms))
	for _, t := range tables {
		byRoom[t.RoomID] = append(byRoom[t.RoomID], t)
	}
	for i := range rooms {
		rooms[i].Tables = byRoom[rooms[i].ID]
		if rooms[i].Tables == nil {
			rooms[i].Tables = []models.Table{}
		}
	}
	return rooms, nil
}

// GetTableRoom returns the room a table belongs to
func (s *Store) GetTableRoom(ctx context.Context, tableID int64) (int64, error) {
	var roomID int64
	err := s.db.GetContext(ctx, &roomID, "SELECT room_id FROM dining_tables WHERE id = $1", tableID)
	if err != nil {
		return 0, notFoundOr(err, "table", tableID)
	}
	return roomID, nil
}
