package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const patientCols = `id, rekam_medik, nama_lengkap, jenis_identitas, nomor_identitas,
	tempat_lahir, tanggal_lahir, jenis_kelamin, golongan_darah, status_perkawinan,
	nama_suami, nama_ibu, pendidikan, pekerjaan, kewarganegaraan, agama, suku, bahasa,
	alamat, rt, rw, provinsi, kabupaten, kecamatan, kelurahan, kode_pos, telepon,
	hubungan_penanggung_jawab, nama_penanggung_jawab, telepon_penanggung_jawab,
	foto_rontgen, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.RekamMedik, &p.NamaLengkap, &p.JenisIdentitas, &p.NomorIdentitas,
		&p.TempatLahir, &p.TanggalLahir, &p.JenisKelamin, &p.GolonganDarah, &p.StatusPerkawinan,
		&p.NamaSuami, &p.NamaIbu, &p.Pendidikan, &p.Pekerjaan, &p.Kewarganegaraan, &p.Agama,
		&p.Suku, &p.Bahasa, &p.Alamat, &p.RT, &p.RW, &p.Provinsi, &p.Kabupaten, &p.Kecamatan,
		&p.Kelurahan, &p.KodePos, &p.Telepon, &p.HubunganPenanggungJawab, &p.NamaPenanggungJawab,
		&p.TeleponPenanggungJawab, &p.FotoRontgen, &p.CreatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	// rekam_medik comes from the server-side generator, never from the client.
	return r.pool.QueryRow(ctx, `
		INSERT INTO patients (rekam_medik, nama_lengkap, jenis_identitas, nomor_identitas,
			tempat_lahir, tanggal_lahir, jenis_kelamin, golongan_darah, status_perkawinan,
			nama_suami, nama_ibu, pendidikan, pekerjaan, kewarganegaraan, agama, suku, bahasa,
			alamat, rt, rw, provinsi, kabupaten, kecamatan, kelurahan, kode_pos, telepon,
			hubungan_penanggung_jawab, nama_penanggung_jawab, telepon_penanggung_jawab, foto_rontgen)
		VALUES (generate_rekam_medik(), $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,
			$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29)
		RETURNING id, rekam_medik, created_at`,
		p.NamaLengkap, p.JenisIdentitas, p.NomorIdentitas, p.TempatLahir, p.TanggalLahir,
		p.JenisKelamin, p.GolonganDarah, p.StatusPerkawinan, p.NamaSuami, p.NamaIbu,
		p.Pendidikan, p.Pekerjaan, p.Kewarganegaraan, p.Agama, p.Suku, p.Bahasa, p.Alamat,
		p.RT, p.RW, p.Provinsi, p.Kabupaten, p.Kecamatan, p.Kelurahan, p.KodePos, p.Telepon,
		p.HubunganPenanggungJawab, p.NamaPenanggungJawab, p.TeleponPenanggungJawab, p.FotoRontgen,
	).Scan(&p.ID, &p.RekamMedik, &p.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE patients SET nama_lengkap=$2, jenis_identitas=$3, nomor_identitas=$4,
			tempat_lahir=$5, tanggal_lahir=$6, jenis_kelamin=$7, golongan_darah=$8,
			status_perkawinan=$9, nama_suami=$10, nama_ibu=$11, pendidikan=$12, pekerjaan=$13,
			kewarganegaraan=$14, agama=$15, suku=$16, bahasa=$17, alamat=$18, rt=$19, rw=$20,
			provinsi=$21, kabupaten=$22, kecamatan=$23, kelurahan=$24, kode_pos=$25, telepon=$26,
			hubungan_penanggung_jawab=$27, nama_penanggung_jawab=$28, telepon_penanggung_jawab=$29,
			foto_rontgen=$30
		WHERE id = $1`,
		p.ID, p.NamaLengkap, p.JenisIdentitas, p.NomorIdentitas, p.TempatLahir, p.TanggalLahir,
		p.JenisKelamin, p.GolonganDarah, p.StatusPerkawinan, p.NamaSuami, p.NamaIbu,
		p.Pendidikan, p.Pekerjaan, p.Kewarganegaraan, p.Agama, p.Suku, p.Bahasa, p.Alamat,
		p.RT, p.RW, p.Provinsi, p.Kabupaten, p.Kecamatan, p.Kelurahan, p.KodePos, p.Telepon,
		p.HubunganPenanggungJawab, p.NamaPenanggungJawab, p.TeleponPenanggungJawab, p.FotoRontgen)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectPatients(rows, total)
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY nama_lengkap`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, _, err := collectPatients(rows, 0)
	return items, err
}

func (r *repoPG) Search(ctx context.Context, term string, limit, offset int) ([]*Patient, int, error) {
	pattern := "%" + term + "%"
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE nama_lengkap ILIKE $1 OR rekam_medik ILIKE $1`,
		pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients
		WHERE nama_lengkap ILIKE $1 OR rekam_medik ILIKE $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectPatients(rows, total)
}

func collectPatients(rows pgx.Rows, total int) ([]*Patient, int, error) {
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
