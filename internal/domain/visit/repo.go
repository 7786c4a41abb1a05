package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts the visit with server-generated id_pendaftaran and
	// no_antrian. The insert is conditional: it re-checks the room's quota
	// for the visit date inside the same transaction and fails with
	// ErrQuotaExhausted when the room is full.
	Create(ctx context.Context, nv *NewVisit) (*Visit, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns registrations (visit + patient join) newest first.
	List(ctx context.Context, limit, offset int) ([]*Registration, int, error)
	ListByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*Registration, int, error)
}

// QuotaRepository is the remaining-quota aggregate for a (room, date) pair.
type QuotaRepository interface {
	RemainingQuota(ctx context.Context, roomID uuid.UUID, tanggal time.Time) (Quota, error)
}
