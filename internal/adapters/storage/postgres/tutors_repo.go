package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"vet-clinic-api/internal/domain/tutors"
	"vet-clinic-api/internal/validation"
)

type TutorsRepo struct {
	db *sql.DB
}

func NewTutorsRepo(db *sql.DB) *TutorsRepo {
	return &TutorsRepo{db: db}
}

const tutorColumns = `
	id, name, cpf, email, phone, address, birth_date, password_hash,
	active, created_at, updated_at, last_modified_by`

func (r *TutorsRepo) Create(ctx context.Context, t tutors.Tutor) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tutors (`+tutorColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		t.ID,
		t.Name,
		t.CPF,
		t.Email,
		t.Phone,
		t.Address,
		t.BirthDate,
		t.PasswordHash,
		t.Active,
		t.CreatedAt,
		t.UpdatedAt,
		t.LastModifiedBy,
	)
	return tutorConflict(err)
}

func (r *TutorsRepo) Update(ctx context.Context, t tutors.Tutor) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tutors
		SET
			name = $2,
			cpf = $3,
			email = $4,
			phone = $5,
			address = $6,
			birth_date = $7,
			password_hash = $8,
			active = $9,
			updated_at = $10,
			last_modified_by = $11
		WHERE id = $1
	`,
		t.ID,
		t.Name,
		t.CPF,
		t.Email,
		t.Phone,
		t.Address,
		t.BirthDate,
		t.PasswordHash,
		t.Active,
		t.UpdatedAt,
		t.LastModifiedBy,
	)
	if err != nil {
		return tutorConflict(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return tutors.ErrNotFound
	}
	return nil
}

func tutorConflict(err error) error {
	if field, ok := uniqueField(err); ok {
		return &tutors.ConflictError{Field: field}
	}
	return err
}

func (r *TutorsRepo) GetByID(ctx context.Context, id string) (tutors.Tutor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return tutors.Tutor{}, tutors.ErrNotFound
	}
	return r.one(ctx, "id = $1", id)
}

func (r *TutorsRepo) FindByCPF(ctx context.Context, cpf string) (tutors.Tutor, error) {
	return r.one(ctx, "cpf = $1", cpf)
}

func (r *TutorsRepo) FindByEmail(ctx context.Context, email string) (tutors.Tutor, error) {
	return r.one(ctx, "lower(email) = lower($1)", email)
}

func (r *TutorsRepo) one(ctx context.Context, cond string, arg any) (tutors.Tutor, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+tutorColumns+" FROM tutors WHERE "+cond, arg)
	t, err := scanTutor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return tutors.Tutor{}, tutors.ErrNotFound
	}
	return t, err
}

func (r *TutorsRepo) List(ctx context.Context, f tutors.Filter) ([]tutors.Tutor, int, error) {
	w := &where{}
	if !f.IncludeInactive {
		w.and("active")
	}
	if f.Name != "" {
		w.and("name ILIKE " + w.arg(like(f.Name)))
	}
	if cpf := validation.OnlyDigits(f.CPF); cpf != "" {
		w.and("cpf LIKE " + w.arg(like(cpf)))
	}
	if f.Email != "" {
		w.and("email ILIKE " + w.arg(like(f.Email)))
	}
	if phone := validation.OnlyDigits(f.Phone); phone != "" {
		w.and("phone LIKE " + w.arg(like(phone)))
	}

	const from = "FROM tutors"
	total, err := count(ctx, r.db, from, w)
	if err != nil {
		return nil, 0, err
	}

	order := " ORDER BY created_at ASC, id ASC"
	if f.OrderBy == tutors.OrderName {
		order = " ORDER BY lower(name) ASC, created_at ASC, id ASC"
	}

	q := "SELECT " + tutorColumns + " " + from + w.String() + order + limit(w, f.Page)
	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]tutors.Tutor, 0)
	for rows.Next() {
		t, err := scanTutor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func scanTutor(s scanner) (tutors.Tutor, error) {
	var t tutors.Tutor
	if err := s.Scan(
		&t.ID,
		&t.Name,
		&t.CPF,
		&t.Email,
		&t.Phone,
		&t.Address,
		&t.BirthDate,
		&t.PasswordHash,
		&t.Active,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.LastModifiedBy,
	); err != nil {
		return tutors.Tutor{}, err
	}
	t.BirthDate = t.BirthDate.UTC()
	return t, nil
}
