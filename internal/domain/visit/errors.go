package visit

import (
	"errors"
	"sort"
	"strings"
)

// Remote-failure sentinels. Every remote call maps to a distinct, localized,
// user-facing message instead of a raw transport error.
var (
	ErrQuotaFetchFailed = errors.New("gagal mengambil sisa kuota")
	ErrSaveFailed       = errors.New("gagal menyimpan data kunjungan")
	ErrFetchFailed      = errors.New("gagal mengambil data pendaftaran")
	ErrUpdateFailed     = errors.New("gagal mengupdate status pendaftaran")
	ErrDeleteFailed     = errors.New("gagal menghapus data pendaftaran")

	// ErrQuotaExhausted is returned by the conditional insert when the last
	// slot for the (room, date) was taken.
	ErrQuotaExhausted = errors.New("kuota untuk ruangan ini sudah habis")

	ErrInvalidTransition = errors.New("status hanya dapat bergerak maju")
)

// Field identifies one form input for field-level error reporting.
type Field string

const (
	FieldPatient     Field = "patient"
	FieldRoom        Field = "room_id"
	FieldDoctor      Field = "doctor_id"
	FieldPayment     Field = "payment_method_id"
	FieldGuarantor   Field = "guarantor_id"
	FieldEscort      Field = "pengantar_pasien"
	FieldEscortPhone Field = "telepon_pengantar"
	FieldQuota       Field = "quota"

	// FieldDoctorList reports a failed roster fetch, distinct from FieldDoctor
	// which reports a missing selection.
	FieldDoctorList Field = "doctors"
)

// Messages shown next to each field, verbatim from the front office UI.
const (
	MsgPatientRequired     = "Pasien wajib dipilih"
	MsgRoomRequired        = "Ruangan wajib dipilih"
	MsgDoctorRequired      = "Dokter wajib dipilih"
	MsgPaymentRequired     = "Cara bayar wajib dipilih"
	MsgGuarantorRequired   = "Penjamin wajib dipilih"
	MsgEscortRequired      = "Pengantar pasien wajib diisi"
	MsgEscortPhoneRequired = "Telepon pengantar wajib diisi"
	MsgQuotaExhausted      = "Kuota untuk ruangan ini sudah habis"
)

// FieldErrors collects every violated rule so the user sees all problems at
// once; validation is never short-circuited.
type FieldErrors map[Field]string

func (fe FieldErrors) Error() string {
	msgs := make([]string, 0, len(fe))
	for _, m := range fe {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
