package visit

import (
	"time"

	"github.com/google/uuid"
)

// Status is the visit lifecycle. Transitions only ever move forward; nothing
// in this system models reversal.
type Status string

const (
	StatusDalamAntrian     Status = "Dalam Antrian"
	StatusDalamPemeriksaan Status = "Dalam Pemeriksaan"
	StatusSelesai          Status = "Selesai"
)

var statusRank = map[Status]int{
	StatusDalamAntrian:     0,
	StatusDalamPemeriksaan: 1,
	StatusSelesai:          2,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is a forward step.
func (s Status) CanTransitionTo(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Visit maps to the patient_visits table. IDPendaftaran (RJ + yyyymmdd +
// 3-digit daily sequence) and NoAntrian (per-day queue number) are produced by
// the database generators during insert; clients never supply them.
type Visit struct {
	ID               uuid.UUID `db:"id" json:"id"`
	IDPendaftaran    string    `db:"id_pendaftaran" json:"id_pendaftaran"`
	NoAntrian        int       `db:"no_antrian" json:"no_antrian"`
	Tanggal          time.Time `db:"tanggal" json:"tanggal"`
	PatientID        uuid.UUID `db:"patient_id" json:"patient_id"`
	RoomID           uuid.UUID `db:"room_id" json:"room_id"`
	DoctorID         uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PaymentMethodID  uuid.UUID `db:"payment_method_id" json:"payment_method_id"`
	GuarantorID      uuid.UUID `db:"guarantor_id" json:"guarantor_id"`
	PengantarPasien  string    `db:"pengantar_pasien" json:"pengantar_pasien"`
	TeleponPengantar string    `db:"telepon_pengantar" json:"telepon_pengantar"`
	Status           Status    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// NewVisit is the creation payload. It carries only client-entered values;
// the server-generated fields live on Visit.
type NewVisit struct {
	Tanggal          time.Time `json:"tanggal"`
	PatientID        uuid.UUID `json:"patient_id"`
	RoomID           uuid.UUID `json:"room_id"`
	DoctorID         uuid.UUID `json:"doctor_id"`
	PaymentMethodID  uuid.UUID `json:"payment_method_id"`
	GuarantorID      uuid.UUID `json:"guarantor_id"`
	PengantarPasien  string    `json:"pengantar_pasien"`
	TeleponPengantar string    `json:"telepon_pengantar"`
}

// Registration is the list/table view of a visit joined with the patient's
// name and medical record number, newest first.
type Registration struct {
	ID            uuid.UUID `db:"id" json:"id"`
	IDPendaftaran string    `db:"id_pendaftaran" json:"id_pendaftaran"`
	NoAntrian     int       `db:"no_antrian" json:"no_antrian"`
	Tanggal       time.Time `db:"tanggal" json:"tanggal"`
	RekamMedik    string    `db:"rekam_medik" json:"rekam_medik"`
	Pasien        string    `db:"pasien" json:"pasien"`
	Status        Status    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Quota is the remaining/total slot count for a (room, date) pair.
type Quota struct {
	Remaining int `json:"remaining"`
	Total     int `json:"total"`
}
