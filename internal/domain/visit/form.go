package visit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/klinik/klinik/internal/domain/catalog"
	"github.com/klinik/klinik/internal/domain/patient"
)

// PatientDirectory supplies the patient selection list. patient.Service
// satisfies it.
type PatientDirectory interface {
	ListAll(ctx context.Context) ([]*patient.Patient, error)
}

// ReferenceGateway supplies the reference dropdowns. catalog.Service
// satisfies it.
type ReferenceGateway interface {
	ListRooms(ctx context.Context) ([]*catalog.Room, error)
	ListDoctorsByRoom(ctx context.Context, roomID uuid.UUID) ([]*catalog.Doctor, error)
	ListPaymentMethods(ctx context.Context) ([]*catalog.PaymentMethod, error)
	ListGuarantors(ctx context.Context) ([]*catalog.Guarantor, error)
}

// QuotaReader reads the remaining quota for a (room, date) pair. The visit
// Service satisfies it.
type QuotaReader interface {
	RemainingQuota(ctx context.Context, roomID uuid.UUID, tanggal time.Time) (Quota, error)
}

// Registrar persists a finished form. The visit Service satisfies it.
type Registrar interface {
	Create(ctx context.Context, nv *NewVisit) (*Visit, error)
}

type FormState string

const (
	FormLoading    FormState = "loading"
	FormReady      FormState = "ready"
	FormLoadFailed FormState = "load_failed"
	FormSubmitting FormState = "submitting"
	FormSubmitted  FormState = "submitted"
)

// Form is one front-desk registration session. It owns the reference lists,
// the operator's current selections, and the quota snapshot for the selected
// room and date.
//
// Room and date changes trigger asynchronous doctor and quota fetches.
// Responses are matched against a per-concern generation counter so that a
// slow response for an earlier selection can never overwrite the state of a
// later one. Wait blocks until all in-flight fetches have settled.
type Form struct {
	dir   PatientDirectory
	refs  ReferenceGateway
	quota QuotaReader
	reg   Registrar
	log   zerolog.Logger

	mu sync.Mutex
	wg sync.WaitGroup

	state   FormState
	loadErr error

	patients   []*patient.Patient
	rooms      []*catalog.Room
	doctors    []*catalog.Doctor
	payments   []*catalog.PaymentMethod
	guarantors []*catalog.Guarantor

	tanggal          time.Time
	patientID        uuid.UUID
	roomID           uuid.UUID
	doctorID         uuid.UUID
	paymentMethodID  uuid.UUID
	guarantorID      uuid.UUID
	pengantarPasien  string
	teleponPengantar string

	remaining  Quota
	quotaKnown bool

	doctorGen uint64
	quotaGen  uint64

	fieldErrs FieldErrors
	result    *Visit
}

func NewForm(dir PatientDirectory, refs ReferenceGateway, quota QuotaReader, reg Registrar, log zerolog.Logger) *Form {
	return &Form{
		dir:       dir,
		refs:      refs,
		quota:     quota,
		reg:       reg,
		log:       log,
		state:     FormLoading,
		tanggal:   time.Now(),
		fieldErrs: FieldErrors{},
	}
}

// Load fetches the four reference lists concurrently. All four must succeed;
// one failure fails the whole load and the form reports it once.
func (f *Form) Load(ctx context.Context) error {
	var (
		patients   []*patient.Patient
		rooms      []*catalog.Room
		payments   []*catalog.PaymentMethod
		guarantors []*catalog.Guarantor
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		patients, err = f.dir.ListAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		rooms, err = f.refs.ListRooms(ctx)
		return err
	})
	g.Go(func() (err error) {
		payments, err = f.refs.ListPaymentMethods(ctx)
		return err
	})
	g.Go(func() (err error) {
		guarantors, err = f.refs.ListGuarantors(ctx)
		return err
	})
	err := g.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = FormLoadFailed
		f.loadErr = err
		f.log.Error().Err(err).Msg("form load failed")
		return err
	}
	f.patients = patients
	f.rooms = rooms
	f.payments = payments
	f.guarantors = guarantors
	f.state = FormReady
	return nil
}

func (f *Form) SelectPatient(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patientID = id
	delete(f.fieldErrs, FieldPatient)
}

// SelectRoom changes the room, refetches that room's doctor roster, and
// refreshes the quota for the new room. If the previously selected doctor is
// not on the new roster the selection is cleared; an operator can never
// submit a doctor that does not work in the chosen room.
func (f *Form) SelectRoom(ctx context.Context, roomID uuid.UUID) {
	f.mu.Lock()
	f.roomID = roomID
	delete(f.fieldErrs, FieldRoom)
	f.doctorGen++
	gen := f.doctorGen
	if roomID == uuid.Nil {
		f.doctors = nil
		f.doctorID = uuid.Nil
		delete(f.fieldErrs, FieldDoctorList)
		f.mu.Unlock()
		f.refreshQuota(ctx)
		return
	}
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		doctors, err := f.refs.ListDoctorsByRoom(ctx, roomID)
		f.mu.Lock()
		defer f.mu.Unlock()
		if gen != f.doctorGen {
			// A later room selection owns the roster now.
			return
		}
		if err != nil {
			f.log.Error().Err(err).Stringer("room_id", roomID).Msg("doctor roster fetch failed")
			f.doctors = nil
			f.doctorID = uuid.Nil
			f.fieldErrs[FieldDoctorList] = catalog.ErrDoctorsFetchFailed.Error()
			return
		}
		f.doctors = doctors
		delete(f.fieldErrs, FieldDoctorList)
		if f.doctorID != uuid.Nil && !containsDoctor(doctors, f.doctorID) {
			f.doctorID = uuid.Nil
		}
	}()

	f.refreshQuota(ctx)
}

// SetTanggal changes the visit date and refreshes the quota; the doctor
// roster does not depend on the date and is left alone.
func (f *Form) SetTanggal(ctx context.Context, t time.Time) {
	f.mu.Lock()
	f.tanggal = t
	f.mu.Unlock()
	f.refreshQuota(ctx)
}

// refreshQuota starts an asynchronous quota fetch for the current room and
// date. The previous snapshot is invalidated immediately, and a fetch failure
// counts as zero remaining with its own field error; the form never lets an
// unknown quota look like an open one.
func (f *Form) refreshQuota(ctx context.Context) {
	f.mu.Lock()
	f.quotaGen++
	gen := f.quotaGen
	roomID := f.roomID
	tanggal := f.tanggal
	f.quotaKnown = false
	f.remaining = Quota{}
	if roomID == uuid.Nil {
		delete(f.fieldErrs, FieldQuota)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		q, err := f.quota.RemainingQuota(ctx, roomID, tanggal)
		f.mu.Lock()
		defer f.mu.Unlock()
		if gen != f.quotaGen {
			return
		}
		if err != nil {
			f.log.Error().Err(err).Stringer("room_id", roomID).Msg("quota fetch failed")
			f.remaining = Quota{}
			f.fieldErrs[FieldQuota] = ErrQuotaFetchFailed.Error()
		} else {
			f.remaining = q
			delete(f.fieldErrs, FieldQuota)
		}
		f.quotaKnown = true
	}()
}

// SelectDoctor accepts only doctors on the current room's roster.
func (f *Form) SelectDoctor(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != uuid.Nil && !containsDoctor(f.doctors, id) {
		return
	}
	f.doctorID = id
	delete(f.fieldErrs, FieldDoctor)
}

func (f *Form) SelectPaymentMethod(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paymentMethodID = id
	delete(f.fieldErrs, FieldPayment)
}

func (f *Form) SelectGuarantor(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guarantorID = id
	delete(f.fieldErrs, FieldGuarantor)
}

func (f *Form) SetPengantarPasien(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pengantarPasien = s
	delete(f.fieldErrs, FieldEscort)
}

func (f *Form) SetTeleponPengantar(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teleponPengantar = s
	delete(f.fieldErrs, FieldEscortPhone)
}

// Submit validates every field, blocks on an exhausted or unsettled quota,
// and registers the visit. On any failure the form returns to ready with
// every entered value intact so the operator can correct and retry.
func (f *Form) Submit(ctx context.Context) (*Visit, error) {
	f.mu.Lock()
	if f.state != FormReady {
		state := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("form belum siap: %s", state)
	}

	nv := &NewVisit{
		Tanggal:          f.tanggal,
		PatientID:        f.patientID,
		RoomID:           f.roomID,
		DoctorID:         f.doctorID,
		PaymentMethodID:  f.paymentMethodID,
		GuarantorID:      f.guarantorID,
		PengantarPasien:  strings.TrimSpace(f.pengantarPasien),
		TeleponPengantar: strings.TrimSpace(f.teleponPengantar),
	}
	fe := Validate(nv)
	// Fetch-state errors survive validation; they describe the reference
	// data, not the operator's input.
	for _, field := range []Field{FieldDoctorList, FieldQuota} {
		if msg, ok := f.fieldErrs[field]; ok {
			fe[field] = msg
		}
	}
	if _, ok := fe[FieldQuota]; !ok && nv.RoomID != uuid.Nil && (!f.quotaKnown || f.remaining.Remaining <= 0) {
		// A quota that has not settled counts as exhausted.
		fe[FieldQuota] = MsgQuotaExhausted
	}
	if len(fe) > 0 {
		f.fieldErrs = fe
		f.mu.Unlock()
		return nil, fe
	}
	f.state = FormSubmitting
	f.mu.Unlock()

	v, err := f.reg.Create(ctx, nv)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = FormReady
		if errors.Is(err, ErrQuotaExhausted) {
			// Lost the race for the last slot. Reflect it on the form.
			f.fieldErrs[FieldQuota] = MsgQuotaExhausted
			f.remaining = Quota{Total: f.remaining.Total}
			f.quotaKnown = true
		}
		return nil, err
	}
	f.state = FormSubmitted
	f.result = v
	return v, nil
}

// Reset prepares the form for the next registration. The reference lists are
// kept; the selections, errors, and result are cleared.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FormLoading || f.state == FormLoadFailed {
		return
	}
	f.state = FormReady
	f.tanggal = time.Now()
	f.patientID = uuid.Nil
	f.roomID = uuid.Nil
	f.doctorID = uuid.Nil
	f.paymentMethodID = uuid.Nil
	f.guarantorID = uuid.Nil
	f.pengantarPasien = ""
	f.teleponPengantar = ""
	f.doctors = nil
	f.remaining = Quota{}
	f.quotaKnown = false
	f.doctorGen++
	f.quotaGen++
	f.fieldErrs = FieldErrors{}
	f.result = nil
}

// Wait blocks until every in-flight doctor and quota fetch has settled.
func (f *Form) Wait() {
	f.wg.Wait()
}

// FormSnapshot is a point-in-time copy of the form for rendering.
type FormSnapshot struct {
	State     FormState `json:"state"`
	LoadError string    `json:"load_error,omitempty"`

	Patients   []*patient.Patient       `json:"patients,omitempty"`
	Rooms      []*catalog.Room          `json:"rooms,omitempty"`
	Doctors    []*catalog.Doctor        `json:"doctors,omitempty"`
	Payments   []*catalog.PaymentMethod `json:"payment_methods,omitempty"`
	Guarantors []*catalog.Guarantor     `json:"guarantors,omitempty"`

	Tanggal          time.Time `json:"tanggal"`
	PatientID        uuid.UUID `json:"patient_id"`
	RoomID           uuid.UUID `json:"room_id"`
	DoctorID         uuid.UUID `json:"doctor_id"`
	PaymentMethodID  uuid.UUID `json:"payment_method_id"`
	GuarantorID      uuid.UUID `json:"guarantor_id"`
	PengantarPasien  string    `json:"pengantar_pasien"`
	TeleponPengantar string    `json:"telepon_pengantar"`

	Quota      Quota `json:"quota"`
	QuotaKnown bool  `json:"quota_known"`

	FieldErrors FieldErrors `json:"field_errors,omitempty"`
	Result      *Visit      `json:"result,omitempty"`
}

func (f *Form) Snapshot() FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := FormSnapshot{
		State:            f.state,
		Patients:         f.patients,
		Rooms:            f.rooms,
		Doctors:          f.doctors,
		Payments:         f.payments,
		Guarantors:       f.guarantors,
		Tanggal:          f.tanggal,
		PatientID:        f.patientID,
		RoomID:           f.roomID,
		DoctorID:         f.doctorID,
		PaymentMethodID:  f.paymentMethodID,
		GuarantorID:      f.guarantorID,
		PengantarPasien:  f.pengantarPasien,
		TeleponPengantar: f.teleponPengantar,
		Quota:            f.remaining,
		QuotaKnown:       f.quotaKnown,
		Result:           f.result,
	}
	if f.loadErr != nil {
		snap.LoadError = f.loadErr.Error()
	}
	if len(f.fieldErrs) > 0 {
		snap.FieldErrors = make(FieldErrors, len(f.fieldErrs))
		for k, v := range f.fieldErrs {
			snap.FieldErrors[k] = v
		}
	}
	return snap
}
