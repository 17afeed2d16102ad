package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"vet-clinic-api/internal/domain/pets"
	"vet-clinic-api/internal/validation"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (
			id, tutor_id,
			name, species, breed, sex,
			birth_date, color, weight,
			notes, photo_url,
			active, created_at, updated_at, last_modified_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		p.ID,
		p.TutorID,
		p.Name,
		string(p.Species),
		p.Breed,
		string(p.Sex),
		p.BirthDate,
		p.Color,
		p.Weight,
		p.Notes,
		p.PhotoURL,
		p.Active,
		p.CreatedAt,
		p.UpdatedAt,
		p.LastModifiedBy,
	)
	return err
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			sex = $5,
			birth_date = $6,
			color = $7,
			weight = $8,
			notes = $9,
			photo_url = $10,
			active = $11,
			updated_at = $12,
			last_modified_by = $13
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		string(p.Species),
		p.Breed,
		string(p.Sex),
		p.BirthDate,
		p.Color,
		p.Weight,
		p.Notes,
		p.PhotoURL,
		p.Active,
		p.UpdatedAt,
		p.LastModifiedBy,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

// Owner sale del join con tutors.
const petSelect = `
	SELECT
		p.id, p.tutor_id,
		p.name, p.species, p.breed, p.sex,
		p.birth_date, p.color, p.weight,
		p.notes, p.photo_url,
		p.active, p.created_at, p.updated_at, p.last_modified_by,
		COALESCE(t.name, ''), COALESCE(t.cpf, '')`

const petFrom = "FROM pets p LEFT JOIN tutors t ON t.id = p.tutor_id"

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, petSelect+" "+petFrom+" WHERE p.id = $1", id)
	p, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, err
}

func (r *PetsRepo) List(ctx context.Context, f pets.Filter) ([]pets.Pet, int, error) {
	w := &where{}
	if !f.IncludeInactive {
		w.and("p.active")
	}
	if f.TutorID != "" {
		w.and("p.tutor_id = " + w.arg(f.TutorID))
	}
	if f.Name != "" {
		w.and("p.name ILIKE " + w.arg(like(f.Name)))
	}
	if f.Species != "" {
		w.and("p.species = " + w.arg(string(f.Species)))
	}
	if f.Breed != "" {
		w.and("p.breed ILIKE " + w.arg(like(f.Breed)))
	}
	if f.OwnerName != "" {
		w.and("t.name ILIKE " + w.arg(like(f.OwnerName)))
	}
	if cpf := validation.OnlyDigits(f.OwnerCPF); cpf != "" {
		w.and("t.cpf LIKE " + w.arg(like(cpf)))
	}

	total, err := count(ctx, r.db, petFrom, w)
	if err != nil {
		return nil, 0, err
	}

	order := " ORDER BY p.created_at ASC, p.id ASC"
	switch f.OrderBy {
	case pets.OrderName:
		order = " ORDER BY lower(p.name) ASC, p.created_at ASC, p.id ASC"
	case pets.OrderOwner:
		order = " ORDER BY lower(t.name) ASC, lower(p.name) ASC, p.created_at ASC, p.id ASC"
	}

	q := petSelect + " " + petFrom + w.String() + order + limit(w, f.Page)
	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func scanPet(s scanner) (pets.Pet, error) {
	var (
		p            pets.Pet
		species, sex string
	)
	if err := s.Scan(
		&p.ID,
		&p.TutorID,
		&p.Name,
		&species,
		&p.Breed,
		&sex,
		&p.BirthDate,
		&p.Color,
		&p.Weight,
		&p.Notes,
		&p.PhotoURL,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.LastModifiedBy,
		&p.Owner.Name,
		&p.Owner.CPF,
	); err != nil {
		return pets.Pet{}, err
	}
	p.Species = pets.Species(species)
	p.Sex = pets.Sex(sex)
	p.BirthDate = p.BirthDate.UTC()
	return p, nil
}
