package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Localized failure messages shown to front-office staff.
var (
	ErrFetchFailed  = fmt.Errorf("gagal mengambil data pasien")
	ErrSaveFailed   = fmt.Errorf("gagal menyimpan data pasien")
	ErrUpdateFailed = fmt.Errorf("gagal mengupdate data pasien")
	ErrDeleteFailed = fmt.Errorf("gagal menghapus data pasien")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if strings.TrimSpace(p.NamaLengkap) == "" {
		return fmt.Errorf("nama_lengkap is required")
	}
	if p.RekamMedik != "" {
		return fmt.Errorf("rekam_medik is server-assigned and must not be set")
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(p.NamaLengkap) == "" {
		return fmt.Errorf("nama_lengkap is required")
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	items, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return items, total, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*Patient, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return items, nil
}

func (s *Service) Search(ctx context.Context, term string, limit, offset int) ([]*Patient, int, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx, limit, offset)
	}
	items, total, err := s.repo.Search(ctx, term, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return items, total, nil
}
