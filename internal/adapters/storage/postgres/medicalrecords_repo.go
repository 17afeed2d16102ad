package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vet-clinic-api/internal/domain/medicalrecords"
)

type MedicalRecordsRepo struct {
	db *sql.DB
}

func NewMedicalRecordsRepo(db *sql.DB) *MedicalRecordsRepo {
	return &MedicalRecordsRepo{db: db}
}

func (r *MedicalRecordsRepo) Create(ctx context.Context, rec medicalrecords.Record) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO medical_records (
				id, pet_id, veterinarian_id, consultation_date,
				diagnosis, prescription, notes,
				active, created_at, updated_at, last_modified_by
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			rec.ID,
			rec.PetID,
			rec.VeterinarianID,
			rec.ConsultationDate,
			rec.Diagnosis,
			rec.Prescription,
			rec.Notes,
			rec.Active,
			rec.CreatedAt,
			rec.UpdatedAt,
			rec.LastModifiedBy,
		)
		if err != nil {
			return err
		}
		return insertAttachments(ctx, tx, rec)
	})
}

func (r *MedicalRecordsRepo) Update(ctx context.Context, rec medicalrecords.Record) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE medical_records
			SET
				diagnosis = $2,
				prescription = $3,
				notes = $4,
				active = $5,
				updated_at = $6,
				last_modified_by = $7
			WHERE id = $1
		`,
			rec.ID,
			rec.Diagnosis,
			rec.Prescription,
			rec.Notes,
			rec.Active,
			rec.UpdatedAt,
			rec.LastModifiedBy,
		)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return medicalrecords.ErrNotFound
		}
		return insertAttachments(ctx, tx, rec)
	})
}

// insertAttachments agrega los adjuntos que todavía no existen. Los adjuntos no se editan.
func insertAttachments(ctx context.Context, tx *sql.Tx, rec medicalrecords.Record) error {
	for i, a := range rec.Attachments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO medical_record_attachments (
				id, record_id, position,
				file_name, stored_name, content_type, size, uploaded_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO NOTHING
		`,
			a.ID,
			rec.ID,
			i,
			a.FileName,
			a.StoredName,
			a.ContentType,
			a.Size,
			a.UploadedAt,
		)
		if err != nil {
			return fmt.Errorf("insert attachment %s: %w", a.ID, err)
		}
	}
	return nil
}

func (r *MedicalRecordsRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

const recordSelect = `
	SELECT
		m.id, m.pet_id, m.veterinarian_id, m.consultation_date,
		m.diagnosis, m.prescription, m.notes,
		m.active, m.created_at, m.updated_at, m.last_modified_by,
		COALESCE(p.name, ''), COALESCE(u.name, '')`

const recordFrom = `FROM medical_records m
	LEFT JOIN pets p ON p.id = m.pet_id
	LEFT JOIN users u ON u.id = m.veterinarian_id`

func (r *MedicalRecordsRepo) GetByID(ctx context.Context, id string) (medicalrecords.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medicalrecords.Record{}, medicalrecords.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, recordSelect+" "+recordFrom+" WHERE m.id = $1", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return medicalrecords.Record{}, medicalrecords.ErrNotFound
	}
	if err != nil {
		return medicalrecords.Record{}, err
	}

	out := []medicalrecords.Record{rec}
	if err := r.loadAttachments(ctx, out); err != nil {
		return medicalrecords.Record{}, err
	}
	return out[0], nil
}

func (r *MedicalRecordsRepo) List(ctx context.Context, f medicalrecords.Filter) ([]medicalrecords.Record, int, error) {
	w := &where{}
	if !f.IncludeInactive {
		w.and("m.active")
	}
	if f.PetID != "" {
		w.and("m.pet_id = " + w.arg(f.PetID))
	}
	if f.VeterinarianID != "" {
		w.and("m.veterinarian_id = " + w.arg(f.VeterinarianID))
	}
	if f.From != nil {
		w.and("m.consultation_date >= " + w.arg(*f.From))
	}
	if f.To != nil {
		w.and("m.consultation_date <= " + w.arg(*f.To))
	}
	if f.DiagnosisKeyword != "" {
		w.and("m.diagnosis ILIKE " + w.arg(like(f.DiagnosisKeyword)))
	}

	total, err := count(ctx, r.db, recordFrom, w)
	if err != nil {
		return nil, 0, err
	}

	q := recordSelect + " " + recordFrom + w.String() +
		" ORDER BY m.consultation_date DESC, m.created_at DESC, m.id ASC" + limit(w, f.Page)
	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]medicalrecords.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.loadAttachments(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// loadAttachments completa los adjuntos de recs con una sola query.
func (r *MedicalRecordsRepo) loadAttachments(ctx context.Context, recs []medicalrecords.Record) error {
	if len(recs) == 0 {
		return nil
	}

	idx := make(map[string]int, len(recs))
	ids := make([]string, 0, len(recs))
	for i, rec := range recs {
		idx[rec.ID] = i
		ids = append(ids, rec.ID)
		recs[i].Attachments = []medicalrecords.Attachment{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT record_id, id, file_name, stored_name, content_type, size, uploaded_at
		FROM medical_record_attachments
		WHERE record_id = ANY($1)
		ORDER BY record_id, position
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			recordID string
			a        medicalrecords.Attachment
		)
		if err := rows.Scan(&recordID, &a.ID, &a.FileName, &a.StoredName, &a.ContentType, &a.Size, &a.UploadedAt); err != nil {
			return err
		}
		i := idx[recordID]
		recs[i].Attachments = append(recs[i].Attachments, a)
	}
	return rows.Err()
}

func scanRecord(s scanner) (medicalrecords.Record, error) {
	var rec medicalrecords.Record
	if err := s.Scan(
		&rec.ID,
		&rec.PetID,
		&rec.VeterinarianID,
		&rec.ConsultationDate,
		&rec.Diagnosis,
		&rec.Prescription,
		&rec.Notes,
		&rec.Active,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.LastModifiedBy,
		&rec.PetName,
		&rec.VeterinarianName,
	); err != nil {
		return medicalrecords.Record{}, err
	}
	rec.ConsultationDate = rec.ConsultationDate.UTC()
	return rec, nil
}
