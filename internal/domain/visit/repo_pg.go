package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const visitCols = `id, id_pendaftaran, no_antrian, tanggal, patient_id, room_id, doctor_id,
	payment_method_id, guarantor_id, pengantar_pasien, telepon_pengantar, status, created_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.IDPendaftaran, &v.NoAntrian, &v.Tanggal, &v.PatientID, &v.RoomID,
		&v.DoctorID, &v.PaymentMethodID, &v.GuarantorID, &v.PengantarPasien, &v.TeleponPengantar,
		&v.Status, &v.CreatedAt)
	return &v, err
}

// Create performs the authoritative quota check. The room row is locked for
// the duration of the transaction, so two front desks racing for the last
// slot serialize here and the loser gets ErrQuotaExhausted.
func (r *repoPG) Create(ctx context.Context, nv *NewVisit) (*Visit, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var quota, taken int
	if err := tx.QueryRow(ctx,
		`SELECT quota FROM rooms WHERE id = $1 FOR UPDATE`, nv.RoomID).Scan(&quota); err != nil {
		return nil, fmt.Errorf("lock room: %w", err)
	}
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_visits WHERE room_id = $1 AND tanggal = $2`,
		nv.RoomID, nv.Tanggal).Scan(&taken); err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}
	if taken >= quota {
		return nil, ErrQuotaExhausted
	}

	v, err := scanVisit(tx.QueryRow(ctx, `
		INSERT INTO patient_visits (id_pendaftaran, no_antrian, tanggal, patient_id, room_id,
			doctor_id, payment_method_id, guarantor_id, pengantar_pasien, telepon_pengantar, status)
		VALUES (generate_id_pendaftaran(), generate_no_antrian(), $1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+visitCols,
		nv.Tanggal, nv.PatientID, nv.RoomID, nv.DoctorID, nv.PaymentMethodID, nv.GuarantorID,
		nv.PengantarPasien, nv.TeleponPengantar, StatusDalamAntrian))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.pool.QueryRow(ctx, `SELECT `+visitCols+` FROM patient_visits WHERE id = $1`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE patient_visits SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM patient_visits WHERE id = $1`, id)
	return err
}

const registrationQuery = `SELECT v.id, v.id_pendaftaran, v.no_antrian, v.tanggal,
	p.rekam_medik, p.nama_lengkap, v.status, v.created_at
	FROM patient_visits v JOIN patients p ON p.id = v.patient_id`

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Registration, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient_visits`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		registrationQuery+` ORDER BY v.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectRegistrations(rows, total)
}

func (r *repoPG) ListByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*Registration, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_visits WHERE tanggal BETWEEN $1 AND $2`,
		start, end).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		registrationQuery+` WHERE v.tanggal BETWEEN $1 AND $2
		ORDER BY v.created_at DESC LIMIT $3 OFFSET $4`, start, end, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectRegistrations(rows, total)
}

func collectRegistrations(rows pgx.Rows, total int) ([]*Registration, int, error) {
	var items []*Registration
	for rows.Next() {
		var reg Registration
		if err := rows.Scan(&reg.ID, &reg.IDPendaftaran, &reg.NoAntrian, &reg.Tanggal,
			&reg.RekamMedik, &reg.Pasien, &reg.Status, &reg.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &reg)
	}
	return items, total, rows.Err()
}

// -- Quota repository --

type quotaRepoPG struct{ pool *pgxpool.Pool }

func NewQuotaRepoPG(pool *pgxpool.Pool) QuotaRepository { return &quotaRepoPG{pool: pool} }

func (r *quotaRepoPG) RemainingQuota(ctx context.Context, roomID uuid.UUID, tanggal time.Time) (Quota, error) {
	var q Quota
	if err := r.pool.QueryRow(ctx,
		`SELECT get_remaining_quota($1, $2)`, roomID, tanggal).Scan(&q.Remaining); err != nil {
		return Quota{}, err
	}
	if err := r.pool.QueryRow(ctx,
		`SELECT quota FROM rooms WHERE id = $1`, roomID).Scan(&q.Total); err != nil {
		return Quota{}, err
	}
	return q, nil
}
