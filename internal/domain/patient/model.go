package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. RekamMedik is the permanent medical
// record number; it is assigned by the database on creation and never changes.
type Patient struct {
	ID                      uuid.UUID  `db:"id" json:"id"`
	RekamMedik              string     `db:"rekam_medik" json:"rekam_medik"`
	NamaLengkap             string     `db:"nama_lengkap" json:"nama_lengkap"`
	JenisIdentitas          string     `db:"jenis_identitas" json:"jenis_identitas"`
	NomorIdentitas          string     `db:"nomor_identitas" json:"nomor_identitas"`
	TempatLahir             string     `db:"tempat_lahir" json:"tempat_lahir"`
	TanggalLahir            *time.Time `db:"tanggal_lahir" json:"tanggal_lahir,omitempty"`
	JenisKelamin            string     `db:"jenis_kelamin" json:"jenis_kelamin"`
	GolonganDarah           string     `db:"golongan_darah" json:"golongan_darah"`
	StatusPerkawinan        string     `db:"status_perkawinan" json:"status_perkawinan"`
	NamaSuami               string     `db:"nama_suami" json:"nama_suami"`
	NamaIbu                 string     `db:"nama_ibu" json:"nama_ibu"`
	Pendidikan              string     `db:"pendidikan" json:"pendidikan"`
	Pekerjaan               string     `db:"pekerjaan" json:"pekerjaan"`
	Kewarganegaraan         string     `db:"kewarganegaraan" json:"kewarganegaraan"`
	Agama                   string     `db:"agama" json:"agama"`
	Suku                    string     `db:"suku" json:"suku"`
	Bahasa                  string     `db:"bahasa" json:"bahasa"`
	Alamat                  string     `db:"alamat" json:"alamat"`
	RT                      string     `db:"rt" json:"rt"`
	RW                      string     `db:"rw" json:"rw"`
	Provinsi                string     `db:"provinsi" json:"provinsi"`
	Kabupaten               string     `db:"kabupaten" json:"kabupaten"`
	Kecamatan               string     `db:"kecamatan" json:"kecamatan"`
	Kelurahan               string     `db:"kelurahan" json:"kelurahan"`
	KodePos                 string     `db:"kode_pos" json:"kode_pos"`
	Telepon                 string     `db:"telepon" json:"telepon"`
	HubunganPenanggungJawab string     `db:"hubungan_penanggung_jawab" json:"hubungan_penanggung_jawab"`
	NamaPenanggungJawab     string     `db:"nama_penanggung_jawab" json:"nama_penanggung_jawab"`
	TeleponPenanggungJawab  string     `db:"telepon_penanggung_jawab" json:"telepon_penanggung_jawab"`
	FotoRontgen             *string    `db:"foto_rontgen" json:"foto_rontgen,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
}
