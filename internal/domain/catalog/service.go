package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// One distinct failure per lookup: callers must be able to tell which
// reference fetch failed rather than reporting a generic error.
var (
	ErrRoomsFetchFailed          = fmt.Errorf("gagal mengambil data ruangan")
	ErrDoctorsFetchFailed        = fmt.Errorf("gagal mengambil data dokter")
	ErrPaymentMethodsFetchFailed = fmt.Errorf("gagal mengambil data cara bayar")
	ErrGuarantorsFetchFailed     = fmt.Errorf("gagal mengambil data penjamin")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListRooms(ctx context.Context) ([]*Room, error) {
	rooms, err := s.repo.ListActiveRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoomsFetchFailed, err)
	}
	return rooms, nil
}

func (s *Service) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	room, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoomsFetchFailed, err)
	}
	return room, nil
}

func (s *Service) ListDoctorsByRoom(ctx context.Context, roomID uuid.UUID) ([]*Doctor, error) {
	doctors, err := s.repo.ListActiveDoctorsByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDoctorsFetchFailed, err)
	}
	return doctors, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]*Doctor, error) {
	doctors, err := s.repo.ListActiveDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDoctorsFetchFailed, err)
	}
	return doctors, nil
}

func (s *Service) ListPaymentMethods(ctx context.Context) ([]*PaymentMethod, error) {
	methods, err := s.repo.ListActivePaymentMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentMethodsFetchFailed, err)
	}
	return methods, nil
}

func (s *Service) ListGuarantors(ctx context.Context) ([]*Guarantor, error) {
	guarantors, err := s.repo.ListActiveGuarantors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGuarantorsFetchFailed, err)
	}
	return guarantors, nil
}
