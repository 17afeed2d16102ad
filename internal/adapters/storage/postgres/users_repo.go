package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"vet-clinic-api/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, name, username, cpf, email, phone, role,
	admission_date, address, birth_date, password_hash,
	active, created_at, updated_at, last_modified_by`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		u.ID,
		u.Name,
		u.Username,
		u.CPF,
		u.Email,
		u.Phone,
		string(u.Role),
		toNullDate(u.AdmissionDate),
		u.Address,
		toNullDate(u.BirthDate),
		u.PasswordHash,
		u.Active,
		u.CreatedAt,
		u.UpdatedAt,
		u.LastModifiedBy,
	)
	return userConflict(err)
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			name = $2,
			username = NULLIF($3,''),
			cpf = $4,
			email = $5,
			phone = $6,
			role = $7,
			admission_date = $8,
			address = $9,
			birth_date = $10,
			password_hash = $11,
			active = $12,
			updated_at = $13,
			last_modified_by = $14
		WHERE id = $1
	`,
		u.ID,
		u.Name,
		u.Username,
		u.CPF,
		u.Email,
		u.Phone,
		string(u.Role),
		toNullDate(u.AdmissionDate),
		u.Address,
		toNullDate(u.BirthDate),
		u.PasswordHash,
		u.Active,
		u.UpdatedAt,
		u.LastModifiedBy,
	)
	if err != nil {
		return userConflict(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func userConflict(err error) error {
	if field, ok := uniqueField(err); ok {
		return &users.ConflictError{Field: field}
	}
	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.one(ctx, "id = $1", id)
}

func (r *UsersRepo) FindByCPF(ctx context.Context, cpf string) (users.User, error) {
	return r.one(ctx, "cpf = $1", cpf)
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (users.User, error) {
	return r.one(ctx, "lower(email) = lower($1)", email)
}

func (r *UsersRepo) FindByUsername(ctx context.Context, username string) (users.User, error) {
	if username == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.one(ctx, "lower(username) = lower($1)", username)
}

func (r *UsersRepo) one(ctx context.Context, cond string, arg any) (users.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+cond, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	return u, err
}

func (r *UsersRepo) List(ctx context.Context, f users.Filter) ([]users.User, int, error) {
	w := &where{}
	if !f.IncludeInactive {
		w.and("active")
	}
	if f.Name != "" {
		w.and("name ILIKE " + w.arg(like(f.Name)))
	}
	if f.CPF != "" {
		w.and("cpf LIKE " + w.arg(like(f.CPF)))
	}
	if f.Role != "" {
		w.and("role = " + w.arg(string(f.Role)))
	}
	if f.AdmissionFrom != nil {
		w.and("admission_date >= " + w.arg(*f.AdmissionFrom))
	}
	if f.AdmissionTo != nil {
		w.and("admission_date <= " + w.arg(*f.AdmissionTo))
	}

	const from = "FROM users"
	total, err := count(ctx, r.db, from, w)
	if err != nil {
		return nil, 0, err
	}

	order := " ORDER BY created_at ASC, id ASC"
	switch f.OrderBy {
	case users.OrderName:
		order = " ORDER BY lower(name) ASC, created_at ASC, id ASC"
	case users.OrderDate:
		order = " ORDER BY admission_date ASC NULLS LAST, created_at ASC, id ASC"
	}

	q := "SELECT " + userColumns + " " + from + w.String() + order + limit(w, f.Page)
	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (users.User, error) {
	var (
		u                users.User
		username         sql.NullString
		role             string
		admission, birth sql.NullTime
	)
	if err := s.Scan(
		&u.ID,
		&u.Name,
		&username,
		&u.CPF,
		&u.Email,
		&u.Phone,
		&role,
		&admission,
		&u.Address,
		&birth,
		&u.PasswordHash,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastModifiedBy,
	); err != nil {
		return users.User{}, err
	}
	u.Username = username.String
	u.Role = users.Role(role)
	u.AdmissionDate = fromNullDate(admission)
	u.BirthDate = fromNullDate(birth)
	return u, nil
}
