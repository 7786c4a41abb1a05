package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts the patient and fills in the server-assigned fields
	// (id, rekam_medik, created_at).
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns patients newest first.
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// ListAll returns every patient ordered by name, for selection lists.
	ListAll(ctx context.Context) ([]*Patient, error)
	// Search matches nama_lengkap or rekam_medik, case-insensitive substring.
	Search(ctx context.Context, term string, limit, offset int) ([]*Patient, int, error)
}
