package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) ListActiveRooms(ctx context.Context) ([]*Room, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, type, quota, is_active FROM rooms WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Type, &room.Quota, &room.IsActive); err != nil {
			return nil, err
		}
		items = append(items, &room)
	}
	return items, rows.Err()
}

func (r *repoPG) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	var room Room
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, type, quota, is_active FROM rooms WHERE id = $1`, id).
		Scan(&room.ID, &room.Name, &room.Type, &room.Quota, &room.IsActive)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *repoPG) ListActiveDoctorsByRoom(ctx context.Context, roomID uuid.UUID) ([]*Doctor, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, specialization, room_id, is_active
		FROM doctors WHERE room_id = $1 AND is_active ORDER BY name`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoctors(rows)
}

func (r *repoPG) ListActiveDoctors(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, specialization, room_id, is_active
		FROM doctors WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoctors(rows)
}

func (r *repoPG) ListActivePaymentMethods(ctx context.Context) ([]*PaymentMethod, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, is_active FROM payment_methods WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PaymentMethod
	for rows.Next() {
		var pm PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.Name, &pm.IsActive); err != nil {
			return nil, err
		}
		items = append(items, &pm)
	}
	return items, rows.Err()
}

func (r *repoPG) ListActiveGuarantors(ctx context.Context) ([]*Guarantor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, type, is_active FROM guarantors WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Guarantor
	for rows.Next() {
		var g Guarantor
		if err := rows.Scan(&g.ID, &g.Name, &g.Type, &g.IsActive); err != nil {
			return nil, err
		}
		items = append(items, &g)
	}
	return items, rows.Err()
}

func collectDoctors(rows pgx.Rows) ([]*Doctor, error) {
	var items []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialization, &d.RoomID, &d.IsActive); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}
