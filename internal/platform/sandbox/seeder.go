// Package sandbox generates synthetic clinic data for demo and development
// environments: polyclinic rooms with their doctors, payment methods,
// guarantors, and a reproducible batch of patients.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedConfig controls the volume and shape of generated synthetic data.
type SeedConfig struct {
	PatientCount int   `json:"patient_count"`
	Seed         int64 `json:"seed"`
}

// DefaultSeedConfig returns a SeedConfig with sensible demo defaults.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{PatientCount: 50, Seed: 1}
}

// SeedRoom pairs a polyclinic room with the doctors who staff it.
type SeedRoom struct {
	Name    string
	Type    string
	Quota   int
	Doctors []SeedDoctor
}

type SeedDoctor struct {
	Name           string
	Specialization string
}

type SeedPatient struct {
	NamaLengkap  string
	JenisKelamin string
	TempatLahir  string
	TanggalLahir time.Time
	Alamat       string
	Telepon      string
	Agama        string
	Pekerjaan    string
}

var seedRooms = []SeedRoom{
	{Name: "Poli Umum", Type: "Rawat Jalan", Quota: 30, Doctors: []SeedDoctor{
		{Name: "dr. Budi Hartono", Specialization: "Umum"},
		{Name: "dr. Ratna Dewi", Specialization: "Umum"},
	}},
	{Name: "Poli Anak", Type: "Rawat Jalan", Quota: 20, Doctors: []SeedDoctor{
		{Name: "dr. Sri Wahyuni, Sp.A", Specialization: "Anak"},
	}},
	{Name: "Poli Gigi", Type: "Rawat Jalan", Quota: 15, Doctors: []SeedDoctor{
		{Name: "drg. Andi Prasetyo", Specialization: "Gigi"},
	}},
	{Name: "Poli Kandungan", Type: "Rawat Jalan", Quota: 15, Doctors: []SeedDoctor{
		{Name: "dr. Maya Sari, Sp.OG", Specialization: "Kandungan"},
	}},
}

var seedPaymentMethods = []string{"Tunai", "BPJS", "Asuransi", "Perusahaan"}

var seedGuarantors = []string{"Pribadi", "BPJS Kesehatan", "Asuransi Swasta", "Perusahaan"}

var (
	firstNames = []string{"Budi", "Siti", "Agus", "Dewi", "Eko", "Rina", "Joko", "Ani", "Dian", "Wawan", "Lestari", "Hendra"}
	lastNames  = []string{"Santoso", "Rahma", "Wibowo", "Lestari", "Saputra", "Utami", "Pratama", "Handayani", "Nugroho", "Susanti"}
	cities     = []string{"Jakarta", "Bandung", "Surabaya", "Semarang", "Yogyakarta", "Medan"}
	religions  = []string{"Islam", "Kristen", "Katolik", "Hindu", "Buddha"}
	jobs       = []string{"Karyawan Swasta", "Wiraswasta", "PNS", "Ibu Rumah Tangga", "Pelajar", "Petani"}
)

// GeneratePatients produces cfg.PatientCount synthetic patients. The same
// seed always yields the same batch.
func GeneratePatients(cfg SeedConfig) []SeedPatient {
	rng := rand.New(rand.NewSource(cfg.Seed))
	patients := make([]SeedPatient, 0, cfg.PatientCount)
	for i := 0; i < cfg.PatientCount; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		gender := "Laki-laki"
		if rng.Intn(2) == 0 {
			gender = "Perempuan"
		}
		birthYear := 1950 + rng.Intn(60)
		city := cities[rng.Intn(len(cities))]
		patients = append(patients, SeedPatient{
			NamaLengkap:  first + " " + last,
			JenisKelamin: gender,
			TempatLahir:  city,
			TanggalLahir: time.Date(birthYear, time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC),
			Alamat:       fmt.Sprintf("Jl. Merdeka No. %d, %s", 1+rng.Intn(200), city),
			Telepon:      fmt.Sprintf("0812%08d", rng.Intn(100000000)),
			Agama:        religions[rng.Intn(len(religions))],
			Pekerjaan:    jobs[rng.Intn(len(jobs))],
		})
	}
	return patients
}

// Seeder inserts synthetic data into the clinic schema.
type Seeder struct {
	pool *pgxpool.Pool
}

func NewSeeder(pool *pgxpool.Pool) *Seeder {
	return &Seeder{pool: pool}
}

// Run inserts the master data and the synthetic patient batch. It is not
// idempotent; run it against an empty database.
func (s *Seeder) Run(ctx context.Context, cfg SeedConfig) error {
	for _, room := range seedRooms {
		var roomID string
		if err := s.pool.QueryRow(ctx,
			`INSERT INTO rooms (name, type, quota, is_active) VALUES ($1, $2, $3, true) RETURNING id`,
			room.Name, room.Type, room.Quota).Scan(&roomID); err != nil {
			return fmt.Errorf("seed room %s: %w", room.Name, err)
		}
		for _, doc := range room.Doctors {
			if _, err := s.pool.Exec(ctx,
				`INSERT INTO doctors (name, specialization, room_id, is_active) VALUES ($1, $2, $3, true)`,
				doc.Name, doc.Specialization, roomID); err != nil {
				return fmt.Errorf("seed doctor %s: %w", doc.Name, err)
			}
		}
	}

	for _, name := range seedPaymentMethods {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO payment_methods (name, is_active) VALUES ($1, true)`, name); err != nil {
			return fmt.Errorf("seed payment method %s: %w", name, err)
		}
	}
	for _, name := range seedGuarantors {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO guarantors (name, is_active) VALUES ($1, true)`, name); err != nil {
			return fmt.Errorf("seed guarantor %s: %w", name, err)
		}
	}

	for _, p := range GeneratePatients(cfg) {
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO patients (rekam_medik, nama_lengkap, jenis_kelamin, tempat_lahir,
				tanggal_lahir, alamat, telepon, agama, pekerjaan)
			VALUES (generate_rekam_medik(), $1, $2, $3, $4, $5, $6, $7, $8)`,
			p.NamaLengkap, p.JenisKelamin, p.TempatLahir, p.TanggalLahir,
			p.Alamat, p.Telepon, p.Agama, p.Pekerjaan); err != nil {
			return fmt.Errorf("seed patient %s: %w", p.NamaLengkap, err)
		}
	}
	return nil
}
