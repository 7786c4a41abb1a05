package visit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/klinik/klinik/internal/domain/catalog"
)

// ReferenceChecker verifies that the references on a new visit exist, are
// active, and are mutually consistent (doctor belongs to the selected room).
// catalog.Repository satisfies it.
type ReferenceChecker interface {
	GetRoom(ctx context.Context, id uuid.UUID) (*catalog.Room, error)
	ListActiveDoctorsByRoom(ctx context.Context, roomID uuid.UUID) ([]*catalog.Doctor, error)
	ListActivePaymentMethods(ctx context.Context) ([]*catalog.PaymentMethod, error)
	ListActiveGuarantors(ctx context.Context) ([]*catalog.Guarantor, error)
}

// QueueEvent is published when a visit is created, for queue display boards.
type QueueEvent struct {
	IDPendaftaran string    `json:"id_pendaftaran"`
	NoAntrian     int       `json:"no_antrian"`
	RoomID        uuid.UUID `json:"room_id"`
	Ruangan       string    `json:"ruangan"`
	Tanggal       time.Time `json:"tanggal"`
	Status        Status    `json:"status"`
}

// Notifier receives queue events. A nil notifier is allowed.
type Notifier interface {
	VisitCreated(e QueueEvent)
	StatusChanged(e QueueEvent)
}

type Service struct {
	visits Repository
	quota  QuotaRepository
	refs   ReferenceChecker
	notify Notifier
}

func NewService(visits Repository, quota QuotaRepository, refs ReferenceChecker, notify Notifier) *Service {
	return &Service{visits: visits, quota: quota, refs: refs, notify: notify}
}

// Validate applies the full rule set to the payload. Every violated rule
// produces its own field-level message; nothing is short-circuited.
func Validate(nv *NewVisit) FieldErrors {
	fe := FieldErrors{}
	if nv.PatientID == uuid.Nil {
		fe[FieldPatient] = MsgPatientRequired
	}
	if nv.RoomID == uuid.Nil {
		fe[FieldRoom] = MsgRoomRequired
	}
	if nv.DoctorID == uuid.Nil {
		fe[FieldDoctor] = MsgDoctorRequired
	}
	if nv.PaymentMethodID == uuid.Nil {
		fe[FieldPayment] = MsgPaymentRequired
	}
	if nv.GuarantorID == uuid.Nil {
		fe[FieldGuarantor] = MsgGuarantorRequired
	}
	if strings.TrimSpace(nv.PengantarPasien) == "" {
		fe[FieldEscort] = MsgEscortRequired
	}
	if strings.TrimSpace(nv.TeleponPengantar) == "" {
		fe[FieldEscortPhone] = MsgEscortPhoneRequired
	}
	return fe
}

// Create validates the payload, verifies the references against the catalog,
// and inserts the visit. The repository re-checks the quota inside the insert
// transaction, so a stale client-side quota snapshot cannot overbook a room.
func (s *Service) Create(ctx context.Context, nv *NewVisit) (*Visit, error) {
	if nv.Tanggal.IsZero() {
		nv.Tanggal = time.Now()
	}
	if fe := Validate(nv); len(fe) > 0 {
		return nil, fe
	}

	room, err := s.refs.GetRoom(ctx, nv.RoomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrRoomsFetchFailed, err)
	}
	if !room.IsActive {
		return nil, fmt.Errorf("ruangan %s tidak aktif", room.Name)
	}
	doctors, err := s.refs.ListActiveDoctorsByRoom(ctx, nv.RoomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrDoctorsFetchFailed, err)
	}
	if !containsDoctor(doctors, nv.DoctorID) {
		return nil, fmt.Errorf("dokter tidak bertugas di ruangan %s", room.Name)
	}
	if err := s.checkPaymentAndGuarantor(ctx, nv); err != nil {
		return nil, err
	}

	v, err := s.visits.Create(ctx, nv)
	if err != nil {
		if errors.Is(err, ErrQuotaExhausted) {
			return nil, ErrQuotaExhausted
		}
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	if s.notify != nil {
		s.notify.VisitCreated(QueueEvent{
			IDPendaftaran: v.IDPendaftaran,
			NoAntrian:     v.NoAntrian,
			RoomID:        v.RoomID,
			Ruangan:       room.Name,
			Tanggal:       v.Tanggal,
			Status:        v.Status,
		})
	}
	return v, nil
}

func (s *Service) checkPaymentAndGuarantor(ctx context.Context, nv *NewVisit) error {
	methods, err := s.refs.ListActivePaymentMethods(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", catalog.ErrPaymentMethodsFetchFailed, err)
	}
	found := false
	for _, m := range methods {
		if m.ID == nv.PaymentMethodID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("cara bayar tidak ditemukan atau tidak aktif")
	}

	guarantors, err := s.refs.ListActiveGuarantors(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", catalog.ErrGuarantorsFetchFailed, err)
	}
	for _, g := range guarantors {
		if g.ID == nv.GuarantorID {
			return nil
		}
	}
	return fmt.Errorf("penjamin tidak ditemukan atau tidak aktif")
}

func containsDoctor(doctors []*catalog.Doctor, id uuid.UUID) bool {
	for _, d := range doctors {
		if d.ID == id {
			return true
		}
	}
	return false
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return v, nil
}

// RemainingQuota returns the remaining/total slots for a (room, date) pair.
func (s *Service) RemainingQuota(ctx context.Context, roomID uuid.UUID, tanggal time.Time) (Quota, error) {
	q, err := s.quota.RemainingQuota(ctx, roomID, tanggal)
	if err != nil {
		return Quota{}, fmt.Errorf("%w: %v", ErrQuotaFetchFailed, err)
	}
	return q, nil
}

// UpdateStatus progresses a visit's status. Backward moves are rejected.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Visit, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("status tidak dikenal: %s", next)
	}
	v, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if !v.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, v.Status, next)
	}
	if err := s.visits.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	v.Status = next

	if s.notify != nil {
		ev := QueueEvent{
			IDPendaftaran: v.IDPendaftaran,
			NoAntrian:     v.NoAntrian,
			RoomID:        v.RoomID,
			Tanggal:       v.Tanggal,
			Status:        next,
		}
		if room, err := s.refs.GetRoom(ctx, v.RoomID); err == nil {
			ev.Ruangan = room.Name
		}
		s.notify.StatusChanged(ev)
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.visits.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (s *Service) ListRegistrations(ctx context.Context, limit, offset int) ([]*Registration, int, error) {
	items, total, err := s.visits.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return items, total, nil
}

func (s *Service) ListRegistrationsByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*Registration, int, error) {
	items, total, err := s.visits.ListByDateRange(ctx, start, end, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return items, total, nil
}
