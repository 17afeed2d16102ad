package clinicapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"vet-clinic-api/internal/domain/users"
)

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username,omitempty"`
	CPF            string    `json:"cpf"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Role           string    `json:"role"`
	AdmissionDate  string    `json:"admissionDate,omitempty"`
	Address        string    `json:"address,omitempty"`
	BirthDate      string    `json:"birthDate,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
}

type UserQuery struct {
	Name            string
	CPF             string
	Role            string
	AdmissionStart  string
	AdmissionEnd    string
	OrderBy         string
	IncludeInactive bool
	Paging
}

func (q UserQuery) values() url.Values {
	v := url.Values{}
	setIf(v, "name", q.Name)
	setIf(v, "cpf", q.CPF)
	setIf(v, "role", q.Role)
	setIf(v, "admissionStart", q.AdmissionStart)
	setIf(v, "admissionEnd", q.AdmissionEnd)
	setIf(v, "orderBy", q.OrderBy)
	setBool(v, "includeInactive", q.IncludeInactive)
	q.Paging.set(v)
	return v
}

// CreateUser registra un usuario. adminID queda como lastModifiedBy ("" = sin registro).
func (c *Client) CreateUser(ctx context.Context, in users.CreateInput, adminID string) (User, error) {
	var out User
	err := c.http.DoJSON(ctx, http.MethodPost, withQuery("/users", actorQuery("adminId", adminID)), nil, in, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	var out User
	err := c.get(ctx, "/users/"+escape(id), nil, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context, q UserQuery) (Page[User], error) {
	var out Page[User]
	err := c.get(ctx, "/users", q.values(), &out)
	return out, err
}

func (c *Client) SearchUsers(ctx context.Context, q UserQuery) ([]User, error) {
	var out []User
	err := c.get(ctx, "/users/search", q.values(), &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch users.UpdateInput, adminID string) (User, error) {
	var out User
	path := withQuery("/users/"+escape(id), actorQuery("adminId", adminID))
	err := c.http.DoJSON(ctx, http.MethodPatch, path, nil, patch, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id, adminID string) error {
	path := withQuery("/users/"+escape(id), actorQuery("adminId", adminID))
	return c.http.DoJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}
