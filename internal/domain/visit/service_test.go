package visit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/klinik/klinik/internal/domain/catalog"
)

// -- Mock visit repository --

type mockVisitRepo struct {
	mu          sync.Mutex
	visits      map[uuid.UUID]*Visit
	roomQuota   map[uuid.UUID]int
	seq         int
	createCalls int
	lastPayload *NewVisit
	failWith    error
}

func newMockVisitRepo() *mockVisitRepo {
	return &mockVisitRepo{
		visits:    make(map[uuid.UUID]*Visit),
		roomQuota: make(map[uuid.UUID]int),
	}
}

func (m *mockVisitRepo) Create(_ context.Context, nv *NewVisit) (*Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	payload := *nv
	m.lastPayload = &payload
	if m.failWith != nil {
		return nil, m.failWith
	}
	taken := 0
	for _, v := range m.visits {
		if v.RoomID == nv.RoomID && v.Tanggal.Format("2006-01-02") == nv.Tanggal.Format("2006-01-02") {
			taken++
		}
	}
	if taken >= m.roomQuota[nv.RoomID] {
		return nil, ErrQuotaExhausted
	}
	m.seq++
	v := &Visit{
		ID:               uuid.New(),
		IDPendaftaran:    fmt.Sprintf("RJ%s%03d", nv.Tanggal.Format("20060102"), m.seq),
		NoAntrian:        m.seq,
		Tanggal:          nv.Tanggal,
		PatientID:        nv.PatientID,
		RoomID:           nv.RoomID,
		DoctorID:         nv.DoctorID,
		PaymentMethodID:  nv.PaymentMethodID,
		GuarantorID:      nv.GuarantorID,
		PengantarPasien:  nv.PengantarPasien,
		TeleponPengantar: nv.TeleponPengantar,
		Status:           StatusDalamAntrian,
		CreatedAt:        time.Now(),
	}
	m.visits[v.ID] = v
	return v, nil
}

func (m *mockVisitRepo) GetByID(_ context.Context, id uuid.UUID) (*Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return v, nil
}

func (m *mockVisitRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	v.Status = status
	return nil
}

func (m *mockVisitRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.visits, id)
	return nil
}

func (m *mockVisitRepo) List(_ context.Context, limit, offset int) ([]*Registration, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, 0, m.failWith
	}
	var items []*Registration
	for _, v := range m.visits {
		items = append(items, &Registration{
			ID:            v.ID,
			IDPendaftaran: v.IDPendaftaran,
			NoAntrian:     v.NoAntrian,
			Tanggal:       v.Tanggal,
			Status:        v.Status,
			CreatedAt:     v.CreatedAt,
		})
	}
	return items, len(items), nil
}

func (m *mockVisitRepo) ListByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*Registration, int, error) {
	all, _, err := m.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var items []*Registration
	for _, r := range all {
		if !r.Tanggal.Before(start) && !r.Tanggal.After(end) {
			items = append(items, r)
		}
	}
	return items, len(items), nil
}

// -- Mock quota repository --

type mockQuotaRepo struct {
	mu      sync.Mutex
	byKey   map[string]Quota
	fail    error
	slowKey string
	release chan struct{}
}

func newMockQuotaRepo() *mockQuotaRepo {
	return &mockQuotaRepo{byKey: make(map[string]Quota)}
}

func quotaKey(roomID uuid.UUID, tanggal time.Time) string {
	return roomID.String() + "|" + tanggal.Format("2006-01-02")
}

func (m *mockQuotaRepo) set(roomID uuid.UUID, tanggal time.Time, q Quota) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKey[quotaKey(roomID, tanggal)] = q
}

func (m *mockQuotaRepo) RemainingQuota(_ context.Context, roomID uuid.UUID, tanggal time.Time) (Quota, error) {
	key := quotaKey(roomID, tanggal)
	m.mu.Lock()
	slow := m.slowKey == key
	release := m.release
	fail := m.fail
	q := m.byKey[key]
	m.mu.Unlock()
	if slow {
		<-release
	}
	if fail != nil {
		return Quota{}, fail
	}
	return q, nil
}

// -- Mock catalog --

// mockCatalog implements catalog.Repository, so it serves both the service's
// reference checks and, through catalog.NewService, the form's dropdowns.
type mockCatalog struct {
	mu             sync.Mutex
	rooms          map[uuid.UUID]*catalog.Room
	doctors        map[uuid.UUID][]*catalog.Doctor
	payments       []*catalog.PaymentMethod
	guarantors     []*catalog.Guarantor
	failRooms      error
	failDoctors    error
	failPayments   error
	failGuarantors error
	slowDoctorRoom uuid.UUID
	doctorRelease  chan struct{}
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		rooms:   make(map[uuid.UUID]*catalog.Room),
		doctors: make(map[uuid.UUID][]*catalog.Doctor),
	}
}

func (m *mockCatalog) ListActiveRooms(_ context.Context) ([]*catalog.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRooms != nil {
		return nil, m.failRooms
	}
	var rooms []*catalog.Room
	for _, r := range m.rooms {
		if r.IsActive {
			rooms = append(rooms, r)
		}
	}
	return rooms, nil
}

func (m *mockCatalog) GetRoom(_ context.Context, id uuid.UUID) (*catalog.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return r, nil
}

func (m *mockCatalog) ListActiveDoctorsByRoom(_ context.Context, roomID uuid.UUID) ([]*catalog.Doctor, error) {
	m.mu.Lock()
	slow := m.slowDoctorRoom == roomID
	release := m.doctorRelease
	fail := m.failDoctors
	roster := m.doctors[roomID]
	m.mu.Unlock()
	if slow {
		<-release
	}
	if fail != nil {
		return nil, fail
	}
	return roster, nil
}

func (m *mockCatalog) ListActiveDoctors(_ context.Context) ([]*catalog.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDoctors != nil {
		return nil, m.failDoctors
	}
	var all []*catalog.Doctor
	for _, roster := range m.doctors {
		all = append(all, roster...)
	}
	return all, nil
}

func (m *mockCatalog) ListActivePaymentMethods(_ context.Context) ([]*catalog.PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPayments != nil {
		return nil, m.failPayments
	}
	return m.payments, nil
}

func (m *mockCatalog) ListActiveGuarantors(_ context.Context) ([]*catalog.Guarantor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGuarantors != nil {
		return nil, m.failGuarantors
	}
	return m.guarantors, nil
}

type mockNotifier struct {
	mu           sync.Mutex
	events       []QueueEvent
	statusEvents []QueueEvent
}

func (m *mockNotifier) VisitCreated(e QueueEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *mockNotifier) StatusChanged(e QueueEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusEvents = append(m.statusEvents, e)
}

// -- Fixture --

type fixture struct {
	repo     *mockVisitRepo
	quota    *mockQuotaRepo
	catalog  *mockCatalog
	notifier *mockNotifier
	svc      *Service

	roomAnak  *catalog.Room
	roomUmum  *catalog.Room
	drSri     *catalog.Doctor
	drBudi    *catalog.Doctor
	payBPJS   *catalog.PaymentMethod
	guarAsur  *catalog.Guarantor
	patientID uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newMockVisitRepo(),
		quota:     newMockQuotaRepo(),
		catalog:   newMockCatalog(),
		notifier:  &mockNotifier{},
		patientID: uuid.New(),
	}
	f.roomAnak = &catalog.Room{ID: uuid.New(), Name: "Poli Anak", Type: "Rawat Jalan", Quota: 2, IsActive: true}
	f.roomUmum = &catalog.Room{ID: uuid.New(), Name: "Poli Umum", Type: "Rawat Jalan", Quota: 5, IsActive: true}
	f.catalog.rooms[f.roomAnak.ID] = f.roomAnak
	f.catalog.rooms[f.roomUmum.ID] = f.roomUmum

	f.drSri = &catalog.Doctor{ID: uuid.New(), Name: "dr. Sri", Specialization: "Anak", RoomID: f.roomAnak.ID, IsActive: true}
	f.drBudi = &catalog.Doctor{ID: uuid.New(), Name: "dr. Budi", Specialization: "Umum", RoomID: f.roomUmum.ID, IsActive: true}
	f.catalog.doctors[f.roomAnak.ID] = []*catalog.Doctor{f.drSri}
	f.catalog.doctors[f.roomUmum.ID] = []*catalog.Doctor{f.drBudi}

	f.payBPJS = &catalog.PaymentMethod{ID: uuid.New(), Name: "BPJS", IsActive: true}
	f.catalog.payments = []*catalog.PaymentMethod{f.payBPJS}
	f.guarAsur = &catalog.Guarantor{ID: uuid.New(), Name: "Asuransi", IsActive: true}
	f.catalog.guarantors = []*catalog.Guarantor{f.guarAsur}

	f.repo.roomQuota[f.roomAnak.ID] = f.roomAnak.Quota
	f.repo.roomQuota[f.roomUmum.ID] = f.roomUmum.Quota

	f.svc = NewService(f.repo, f.quota, f.catalog, f.notifier)
	return f
}

func (f *fixture) validPayload() *NewVisit {
	return &NewVisit{
		Tanggal:          time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		PatientID:        f.patientID,
		RoomID:           f.roomAnak.ID,
		DoctorID:         f.drSri.ID,
		PaymentMethodID:  f.payBPJS.ID,
		GuarantorID:      f.guarAsur.ID,
		PengantarPasien:  "Budi",
		TeleponPengantar: "081234567890",
	}
}

// -- Tests --

func TestServiceCreate_Succeeds(t *testing.T) {
	f := newFixture()
	v, err := f.svc.Create(context.Background(), f.validPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != StatusDalamAntrian {
		t.Errorf("new visit should start in queue, got %q", v.Status)
	}
	if v.IDPendaftaran != "RJ20260830001" {
		t.Errorf("unexpected id pendaftaran %q", v.IDPendaftaran)
	}
	if v.NoAntrian != 1 {
		t.Errorf("expected queue number 1, got %d", v.NoAntrian)
	}
}

func TestServiceCreate_CollectsAllFieldErrors(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), &NewVisit{})
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected field errors, got %v", err)
	}
	want := map[Field]string{
		FieldPatient:     MsgPatientRequired,
		FieldRoom:        MsgRoomRequired,
		FieldDoctor:      MsgDoctorRequired,
		FieldPayment:     MsgPaymentRequired,
		FieldGuarantor:   MsgGuarantorRequired,
		FieldEscort:      MsgEscortRequired,
		FieldEscortPhone: MsgEscortPhoneRequired,
	}
	if len(fe) != len(want) {
		t.Errorf("expected %d field errors, got %d: %v", len(want), len(fe), fe)
	}
	for field, msg := range want {
		if fe[field] != msg {
			t.Errorf("field %s: want %q, got %q", field, msg, fe[field])
		}
	}
	if f.repo.createCalls != 0 {
		t.Error("repository must not be called when validation fails")
	}
}

func TestServiceCreate_WhitespaceEscortRejected(t *testing.T) {
	f := newFixture()
	nv := f.validPayload()
	nv.PengantarPasien = "   "
	_, err := f.svc.Create(context.Background(), nv)
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected field errors, got %v", err)
	}
	if fe[FieldEscort] != MsgEscortRequired {
		t.Errorf("want %q, got %q", MsgEscortRequired, fe[FieldEscort])
	}
}

func TestServiceCreate_QuotaExhausted(t *testing.T) {
	f := newFixture()
	f.repo.roomQuota[f.roomAnak.ID] = 0
	_, err := f.svc.Create(context.Background(), f.validPayload())
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if len(f.repo.visits) != 0 {
		t.Error("no visit may be stored when the room is full")
	}
}

func TestServiceCreate_DoctorMustBelongToRoom(t *testing.T) {
	f := newFixture()
	nv := f.validPayload()
	nv.DoctorID = f.drBudi.ID // works in Poli Umum, not Poli Anak
	if _, err := f.svc.Create(context.Background(), nv); err == nil {
		t.Error("expected rejection of a doctor outside the selected room")
	}
	if f.repo.createCalls != 0 {
		t.Error("repository must not be called for an inconsistent payload")
	}
}

func TestServiceCreate_InactiveRoomRejected(t *testing.T) {
	f := newFixture()
	f.roomAnak.IsActive = false
	if _, err := f.svc.Create(context.Background(), f.validPayload()); err == nil {
		t.Error("expected rejection of an inactive room")
	}
}

func TestServiceCreate_NotifiesQueue(t *testing.T) {
	f := newFixture()
	v, err := f.svc.Create(context.Background(), f.validPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.notifier.events) != 1 {
		t.Fatalf("expected one queue event, got %d", len(f.notifier.events))
	}
	e := f.notifier.events[0]
	if e.NoAntrian != v.NoAntrian || e.Ruangan != "Poli Anak" || e.Status != StatusDalamAntrian {
		t.Errorf("unexpected queue event: %+v", e)
	}
}

func TestUpdateStatus_ForwardOnly(t *testing.T) {
	f := newFixture()
	v, err := f.svc.Create(context.Background(), f.validPayload())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := f.svc.UpdateStatus(context.Background(), v.ID, StatusDalamPemeriksaan); err != nil {
		t.Fatalf("queue to examination should succeed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), v.ID, StatusDalamAntrian); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("backward move must fail, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), v.ID, StatusSelesai); err != nil {
		t.Fatalf("examination to done should succeed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), v.ID, StatusSelesai); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("done is terminal, got %v", err)
	}
}

func TestUpdateStatus_NotifiesQueue(t *testing.T) {
	f := newFixture()
	v, err := f.svc.Create(context.Background(), f.validPayload())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), v.ID, StatusDalamPemeriksaan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.notifier.statusEvents) != 1 {
		t.Fatalf("expected one status event, got %d", len(f.notifier.statusEvents))
	}
	e := f.notifier.statusEvents[0]
	if e.NoAntrian != v.NoAntrian || e.Ruangan != "Poli Anak" || e.Status != StatusDalamPemeriksaan {
		t.Errorf("unexpected status event: %+v", e)
	}
}

func TestUpdateStatus_UnknownStatusRejected(t *testing.T) {
	f := newFixture()
	v, err := f.svc.Create(context.Background(), f.validPayload())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), v.ID, Status("Dibatalkan")); err == nil {
		t.Error("expected rejection of an unknown status")
	}
}

func TestRemainingQuota_WrapsFailure(t *testing.T) {
	f := newFixture()
	f.quota.fail = fmt.Errorf("connection refused")
	_, err := f.svc.RemainingQuota(context.Background(), f.roomAnak.ID, time.Now())
	if !errors.Is(err, ErrQuotaFetchFailed) {
		t.Errorf("expected ErrQuotaFetchFailed, got %v", err)
	}
}

func TestListRegistrations_WrapsFailure(t *testing.T) {
	f := newFixture()
	f.repo.failWith = fmt.Errorf("timeout")
	_, _, err := f.svc.ListRegistrations(context.Background(), 20, 0)
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got %v", err)
	}
}
