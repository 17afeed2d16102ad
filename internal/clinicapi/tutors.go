package clinicapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"vet-clinic-api/internal/domain/tutors"
)

type Tutor struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CPF            string    `json:"cpf"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	BirthDate      string    `json:"birthDate"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
}

type TutorQuery struct {
	Name            string
	CPF             string
	Email           string
	Phone           string
	OrderBy         string
	IncludeInactive bool
	Paging
}

func (q TutorQuery) values() url.Values {
	v := url.Values{}
	setIf(v, "name", q.Name)
	setIf(v, "cpf", q.CPF)
	setIf(v, "email", q.Email)
	setIf(v, "phone", q.Phone)
	setIf(v, "orderBy", q.OrderBy)
	setBool(v, "includeInactive", q.IncludeInactive)
	q.Paging.set(v)
	return v
}

func (c *Client) RegisterTutor(ctx context.Context, in tutors.CreateInput) (Tutor, error) {
	var out Tutor
	err := c.http.DoJSON(ctx, http.MethodPost, "/tutors", nil, in, &out)
	return out, err
}

func (c *Client) GetTutor(ctx context.Context, id string) (Tutor, error) {
	var out Tutor
	err := c.get(ctx, "/tutors/"+escape(id), nil, &out)
	return out, err
}

func (c *Client) ListTutors(ctx context.Context, q TutorQuery) (Page[Tutor], error) {
	var out Page[Tutor]
	err := c.get(ctx, "/tutors", q.values(), &out)
	return out, err
}

func (c *Client) SearchTutors(ctx context.Context, q TutorQuery) ([]Tutor, error) {
	var out []Tutor
	err := c.get(ctx, "/tutors/search", q.values(), &out)
	return out, err
}

func (c *Client) UpdateTutor(ctx context.Context, id string, patch tutors.UpdateInput, adminID string) (Tutor, error) {
	var out Tutor
	path := withQuery("/tutors/"+escape(id), actorQuery("adminId", adminID))
	err := c.http.DoJSON(ctx, http.MethodPatch, path, nil, patch, &out)
	return out, err
}

func (c *Client) DeleteTutor(ctx context.Context, id, adminID string) error {
	path := withQuery("/tutors/"+escape(id), actorQuery("adminId", adminID))
	return c.http.DoJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}
