package catalog

import "github.com/google/uuid"

// Room is a clinic service point (poliklinik) with a fixed daily quota.
type Room struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Type     string    `db:"type" json:"type"`
	Quota    int       `db:"quota" json:"quota"`
	IsActive bool      `db:"is_active" json:"is_active"`
}

// Doctor belongs to exactly one room; only doctors of the selected room are
// valid for a visit.
type Doctor struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Specialization string    `db:"specialization" json:"specialization"`
	RoomID         uuid.UUID `db:"room_id" json:"room_id"`
	IsActive       bool      `db:"is_active" json:"is_active"`
}

type PaymentMethod struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	IsActive bool      `db:"is_active" json:"is_active"`
}

type Guarantor struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Type     string    `db:"type" json:"type"`
	IsActive bool      `db:"is_active" json:"is_active"`
}
