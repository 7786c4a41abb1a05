package visit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/klinik/klinik/internal/domain/catalog"
	"github.com/klinik/klinik/internal/domain/patient"
)

type mockDirectory struct {
	patients []*patient.Patient
	fail     error
}

func (m *mockDirectory) ListAll(_ context.Context) ([]*patient.Patient, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	return m.patients, nil
}

type formFixture struct {
	*fixture
	dir  *mockDirectory
	form *Form
}

func newFormFixture() *formFixture {
	f := newFixture()
	dir := &mockDirectory{patients: []*patient.Patient{
		{ID: f.patientID, RekamMedik: "000001", NamaLengkap: "Siti Rahma"},
	}}
	form := NewForm(dir, catalog.NewService(f.catalog), f.svc, f.svc, zerolog.Nop())
	return &formFixture{fixture: f, dir: dir, form: form}
}

// loadReady loads the form and fails the test if it does not come up ready.
func (ff *formFixture) loadReady(t *testing.T) {
	t.Helper()
	if err := ff.form.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

// fillValid drives the form to a submittable state through the same calls an
// operator's session would make.
func (ff *formFixture) fillValid(t *testing.T, ctx context.Context) {
	t.Helper()
	ff.quota.set(ff.roomAnak.ID, time.Now(), Quota{Remaining: 2, Total: 2})
	ff.form.SelectPatient(ff.patientID)
	ff.form.SelectRoom(ctx, ff.roomAnak.ID)
	ff.form.Wait()
	ff.form.SelectDoctor(ff.drSri.ID)
	ff.form.SelectPaymentMethod(ff.payBPJS.ID)
	ff.form.SelectGuarantor(ff.guarAsur.ID)
	ff.form.SetPengantarPasien("Budi")
	ff.form.SetTeleponPengantar("081234567890")
}

func TestFormLoad_Ready(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)

	snap := ff.form.Snapshot()
	if snap.State != FormReady {
		t.Fatalf("expected ready, got %s", snap.State)
	}
	if len(snap.Patients) != 1 || len(snap.Rooms) != 2 || len(snap.Payments) != 1 || len(snap.Guarantors) != 1 {
		t.Errorf("reference lists not populated: %d patients, %d rooms, %d payments, %d guarantors",
			len(snap.Patients), len(snap.Rooms), len(snap.Payments), len(snap.Guarantors))
	}
	if len(snap.Doctors) != 0 {
		t.Error("doctor roster must be empty before a room is chosen")
	}
}

func TestFormLoad_OneFailureFailsWholeLoad(t *testing.T) {
	ff := newFormFixture()
	ff.catalog.failPayments = fmt.Errorf("connection refused")

	err := ff.form.Load(context.Background())
	if !errors.Is(err, catalog.ErrPaymentMethodsFetchFailed) {
		t.Fatalf("expected payment fetch failure, got %v", err)
	}
	snap := ff.form.Snapshot()
	if snap.State != FormLoadFailed {
		t.Errorf("expected load_failed, got %s", snap.State)
	}
	if snap.LoadError == "" {
		t.Error("load error must be reported")
	}
}

func TestFormSelectRoom_FetchesRosterAndQuota(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ff.quota.set(ff.roomAnak.ID, time.Now(), Quota{Remaining: 1, Total: 2})

	ff.form.SelectRoom(context.Background(), ff.roomAnak.ID)
	ff.form.Wait()

	snap := ff.form.Snapshot()
	if len(snap.Doctors) != 1 || snap.Doctors[0].ID != ff.drSri.ID {
		t.Errorf("expected Poli Anak roster, got %+v", snap.Doctors)
	}
	if !snap.QuotaKnown || snap.Quota != (Quota{Remaining: 1, Total: 2}) {
		t.Errorf("unexpected quota: known=%v %+v", snap.QuotaKnown, snap.Quota)
	}
}

func TestFormSelectRoom_ClearsDoctorOutsideNewRoom(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ctx := context.Background()

	ff.form.SelectRoom(ctx, ff.roomAnak.ID)
	ff.form.Wait()
	ff.form.SelectDoctor(ff.drSri.ID)

	ff.form.SelectRoom(ctx, ff.roomUmum.ID)
	ff.form.Wait()
	snap := ff.form.Snapshot()
	if snap.DoctorID != uuid.Nil {
		t.Error("doctor from the old room must be cleared")
	}
	if len(snap.Doctors) != 1 || snap.Doctors[0].ID != ff.drBudi.ID {
		t.Errorf("expected Poli Umum roster, got %+v", snap.Doctors)
	}

	// Returning to the first room restores its roster and dr. Sri is
	// selectable again.
	ff.form.SelectRoom(ctx, ff.roomAnak.ID)
	ff.form.Wait()
	ff.form.SelectDoctor(ff.drSri.ID)
	if snap := ff.form.Snapshot(); snap.DoctorID != ff.drSri.ID {
		t.Errorf("expected dr. Sri selected, got %s", snap.DoctorID)
	}
}

func TestFormSelectDoctor_RejectsOutsideRoster(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)

	ff.form.SelectRoom(context.Background(), ff.roomAnak.ID)
	ff.form.Wait()
	ff.form.SelectDoctor(ff.drBudi.ID)
	if snap := ff.form.Snapshot(); snap.DoctorID != uuid.Nil {
		t.Error("a doctor outside the current roster must not be selectable")
	}
}

func TestFormSelectRoom_StaleRosterSuppressed(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ctx := context.Background()

	release := make(chan struct{})
	ff.catalog.mu.Lock()
	ff.catalog.slowDoctorRoom = ff.roomAnak.ID
	ff.catalog.doctorRelease = release
	ff.catalog.mu.Unlock()

	ff.form.SelectRoom(ctx, ff.roomAnak.ID) // response will arrive late
	ff.form.SelectRoom(ctx, ff.roomUmum.ID) // supersedes it
	close(release)
	ff.form.Wait()

	snap := ff.form.Snapshot()
	if snap.RoomID != ff.roomUmum.ID {
		t.Fatalf("expected Poli Umum selected, got %s", snap.RoomID)
	}
	if len(snap.Doctors) != 1 || snap.Doctors[0].ID != ff.drBudi.ID {
		t.Errorf("late roster for the old room must be discarded, got %+v", snap.Doctors)
	}
}

func TestFormQuota_StaleResponseSuppressed(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ctx := context.Background()

	day1 := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	ff.quota.set(ff.roomUmum.ID, day1, Quota{Remaining: 5, Total: 5})
	ff.quota.set(ff.roomUmum.ID, day2, Quota{Remaining: 3, Total: 5})

	ff.form.SelectRoom(ctx, ff.roomUmum.ID)
	ff.form.Wait()

	release := make(chan struct{})
	ff.quota.mu.Lock()
	ff.quota.slowKey = quotaKey(ff.roomUmum.ID, day1)
	ff.quota.release = release
	ff.quota.mu.Unlock()

	ff.form.SetTanggal(ctx, day1) // response will arrive late
	ff.form.SetTanggal(ctx, day2) // supersedes it
	close(release)
	ff.form.Wait()

	snap := ff.form.Snapshot()
	if snap.Quota != (Quota{Remaining: 3, Total: 5}) {
		t.Errorf("late quota for the old date must be discarded, got %+v", snap.Quota)
	}
}

func TestFormQuota_FetchFailureCountsAsZero(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ff.quota.fail = fmt.Errorf("connection refused")

	ff.form.SelectRoom(context.Background(), ff.roomAnak.ID)
	ff.form.Wait()

	snap := ff.form.Snapshot()
	if !snap.QuotaKnown {
		t.Fatal("a failed quota fetch must still settle the quota")
	}
	if snap.Quota != (Quota{}) {
		t.Errorf("failed fetch must read as zero remaining, got %+v", snap.Quota)
	}
}

func TestFormSelectRoom_FetchFailuresSurfaceOnSnapshot(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ctx := context.Background()

	ff.catalog.mu.Lock()
	ff.catalog.failDoctors = fmt.Errorf("connection refused")
	ff.catalog.mu.Unlock()
	ff.quota.fail = fmt.Errorf("connection refused")

	ff.form.SelectRoom(ctx, ff.roomAnak.ID)
	ff.form.Wait()

	snap := ff.form.Snapshot()
	if snap.FieldErrors[FieldDoctorList] != "gagal mengambil data dokter" {
		t.Errorf("roster failure must surface, got %q", snap.FieldErrors[FieldDoctorList])
	}
	if snap.FieldErrors[FieldQuota] != "gagal mengambil sisa kuota" {
		t.Errorf("quota failure must surface, got %q", snap.FieldErrors[FieldQuota])
	}

	// A successful refetch clears both.
	ff.catalog.mu.Lock()
	ff.catalog.failDoctors = nil
	ff.catalog.mu.Unlock()
	ff.quota.fail = nil
	ff.quota.set(ff.roomAnak.ID, time.Now(), Quota{Remaining: 2, Total: 2})

	ff.form.SelectRoom(ctx, ff.roomAnak.ID)
	ff.form.Wait()

	snap = ff.form.Snapshot()
	if _, ok := snap.FieldErrors[FieldDoctorList]; ok {
		t.Error("roster error must clear after a successful fetch")
	}
	if _, ok := snap.FieldErrors[FieldQuota]; ok {
		t.Error("quota error must clear after a successful fetch")
	}
}

func TestFormSubmit_QuotaFetchFailureBlocksWithDistinctError(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ctx := context.Background()
	ff.fillValid(t, ctx)

	ff.quota.fail = fmt.Errorf("connection refused")
	ff.form.SetTanggal(ctx, time.Now())
	ff.form.Wait()

	_, err := ff.form.Submit(ctx)
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected field errors, got %v", err)
	}
	if fe[FieldQuota] != "gagal mengambil sisa kuota" {
		t.Errorf("a fetch failure must not read as an exhausted quota, got %q", fe[FieldQuota])
	}
	if ff.repo.createCalls != 0 {
		t.Error("a failed quota fetch must block before any create call")
	}
}

func TestFormSubmit_UnsettledQuotaBlocks(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ctx := context.Background()
	ff.fillValid(t, ctx)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	ff.quota.set(ff.roomAnak.ID, day, Quota{Remaining: 5, Total: 5})
	release := make(chan struct{})
	ff.quota.mu.Lock()
	ff.quota.slowKey = quotaKey(ff.roomAnak.ID, day)
	ff.quota.release = release
	ff.quota.mu.Unlock()

	ff.form.SetTanggal(ctx, day) // fetch is still in flight

	_, err := ff.form.Submit(ctx)
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected field errors, got %v", err)
	}
	if fe[FieldQuota] != MsgQuotaExhausted {
		t.Errorf("an unsettled quota must count as exhausted, got %q", fe[FieldQuota])
	}
	if ff.repo.createCalls != 0 {
		t.Error("an unsettled quota must block before any create call")
	}

	close(release)
	ff.form.Wait()
	if snap := ff.form.Snapshot(); !snap.QuotaKnown {
		t.Error("the in-flight fetch must still settle")
	}
}

func TestFormSubmit_ExhaustedQuotaBlocksWithoutCreate(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ctx := context.Background()
	ff.fillValid(t, ctx)

	ff.quota.set(ff.roomAnak.ID, time.Now(), Quota{Remaining: 0, Total: 2})
	ff.form.SetTanggal(ctx, time.Now())
	ff.form.Wait()

	_, err := ff.form.Submit(ctx)
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected field errors, got %v", err)
	}
	if fe[FieldQuota] != "Kuota untuk ruangan ini sudah habis" {
		t.Errorf("want quota message, got %q", fe[FieldQuota])
	}
	if ff.repo.createCalls != 0 {
		t.Error("an exhausted quota must block before any create call")
	}
	if snap := ff.form.Snapshot(); snap.State != FormReady {
		t.Errorf("form must stay ready, got %s", snap.State)
	}
}

func TestFormSubmit_CollectsAllErrors(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)

	_, err := ff.form.Submit(context.Background())
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected field errors, got %v", err)
	}
	for field, want := range map[Field]string{
		FieldPatient:     "Pasien wajib dipilih",
		FieldRoom:        "Ruangan wajib dipilih",
		FieldDoctor:      "Dokter wajib dipilih",
		FieldPayment:     "Cara bayar wajib dipilih",
		FieldGuarantor:   "Penjamin wajib dipilih",
		FieldEscort:      "Pengantar pasien wajib diisi",
		FieldEscortPhone: "Telepon pengantar wajib diisi",
	} {
		if fe[field] != want {
			t.Errorf("field %s: want %q, got %q", field, want, fe[field])
		}
	}
}

func TestFormSubmit_FieldEditClearsOwnError(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)

	if _, err := ff.form.Submit(context.Background()); err == nil {
		t.Fatal("expected validation failure")
	}
	ff.form.SelectPatient(ff.patientID)
	snap := ff.form.Snapshot()
	if _, ok := snap.FieldErrors[FieldPatient]; ok {
		t.Error("selecting a patient must clear its error")
	}
	if _, ok := snap.FieldErrors[FieldRoom]; !ok {
		t.Error("other field errors must remain")
	}
}

func TestFormSubmit_Succeeds(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ctx := context.Background()
	ff.fillValid(t, ctx)

	v, err := ff.form.Submit(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != StatusDalamAntrian {
		t.Errorf("new visit should start in queue, got %q", v.Status)
	}
	if snap := ff.form.Snapshot(); snap.State != FormSubmitted || snap.Result == nil {
		t.Errorf("expected submitted with result, got %s", snap.State)
	}
}

func TestFormSubmit_PayloadCarriesOnlyEnteredValues(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ctx := context.Background()
	ff.fillValid(t, ctx)
	ff.form.SetPengantarPasien("  Budi  ")
	ff.form.SetTeleponPengantar(" 081234567890 ")

	if _, err := ff.form.Submit(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := ff.repo.lastPayload
	if p.PatientID != ff.patientID || p.RoomID != ff.roomAnak.ID || p.DoctorID != ff.drSri.ID ||
		p.PaymentMethodID != ff.payBPJS.ID || p.GuarantorID != ff.guarAsur.ID {
		t.Errorf("unexpected references in payload: %+v", p)
	}
	if p.PengantarPasien != "Budi" || p.TeleponPengantar != "081234567890" {
		t.Errorf("escort fields must be trimmed, got %q %q", p.PengantarPasien, p.TeleponPengantar)
	}
}

func TestFormSubmit_LostRaceReturnsToReady(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ctx := context.Background()
	ff.fillValid(t, ctx)

	// The form's snapshot still shows open slots, but the room filled up
	// underneath it; the conditional insert is the authority.
	ff.repo.roomQuota[ff.roomAnak.ID] = 0

	_, err := ff.form.Submit(ctx)
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	snap := ff.form.Snapshot()
	if snap.State != FormReady {
		t.Errorf("form must return to ready, got %s", snap.State)
	}
	if snap.FieldErrors[FieldQuota] != MsgQuotaExhausted {
		t.Errorf("quota error must surface on the form, got %q", snap.FieldErrors[FieldQuota])
	}
	if snap.PatientID != ff.patientID || snap.PengantarPasien == "" {
		t.Error("entered values must survive a failed submit")
	}
}

func TestFormReset_KeepsReferenceLists(t *testing.T) {
	ff := newFormFixture()
	ff.loadReady(t)
	ctx := context.Background()
	ff.fillValid(t, ctx)
	if _, err := ff.form.Submit(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ff.form.Reset()
	snap := ff.form.Snapshot()
	if snap.State != FormReady {
		t.Errorf("expected ready after reset, got %s", snap.State)
	}
	if snap.PatientID != uuid.Nil || snap.RoomID != uuid.Nil || snap.Result != nil {
		t.Error("selections and result must be cleared")
	}
	if len(snap.Rooms) != 2 || len(snap.Patients) != 1 {
		t.Error("reference lists must survive a reset")
	}
}
