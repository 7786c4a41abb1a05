package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads the reference tables. All listings return active entries
// only, ordered by name, so the four lookups can be issued concurrently with
// no ordering dependency between them.
type Repository interface {
	ListActiveRooms(ctx context.Context) ([]*Room, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*Room, error)
	ListActiveDoctorsByRoom(ctx context.Context, roomID uuid.UUID) ([]*Doctor, error)
	ListActiveDoctors(ctx context.Context) ([]*Doctor, error)
	ListActivePaymentMethods(ctx context.Context) ([]*PaymentMethod, error)
	ListActiveGuarantors(ctx context.Context) ([]*Guarantor, error)
}
