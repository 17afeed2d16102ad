package clinicapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"vet-clinic-api/internal/domain/pets"
)

type Pet struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Species        string    `json:"species"`
	Breed          string    `json:"breed"`
	Sex            string    `json:"sex"`
	BirthDate      string    `json:"birthDate"`
	Age            int       `json:"age"`
	Color          string    `json:"color"`
	Weight         float64   `json:"weight"`
	TutorID        string    `json:"tutorId"`
	TutorName      string    `json:"tutorName"`
	TutorCPF       string    `json:"tutorCpf"`
	Notes          string    `json:"notes"`
	PhotoURL       string    `json:"photoUrl,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
}

type PetQuery struct {
	Name            string
	Species         string
	Breed           string
	OwnerName       string
	OwnerCPF        string
	TutorID         string
	OrderBy         string
	IncludeInactive bool
	Paging
}

func (q PetQuery) values() url.Values {
	v := url.Values{}
	setIf(v, "name", q.Name)
	setIf(v, "species", q.Species)
	setIf(v, "breed", q.Breed)
	setIf(v, "ownerName", q.OwnerName)
	setIf(v, "ownerCpf", q.OwnerCPF)
	setIf(v, "tutorId", q.TutorID)
	setIf(v, "orderBy", q.OrderBy)
	setBool(v, "includeInactive", q.IncludeInactive)
	q.Paging.set(v)
	return v
}

func (c *Client) CreatePet(ctx context.Context, in pets.CreateInput) (Pet, error) {
	var out Pet
	err := c.http.DoJSON(ctx, http.MethodPost, "/pets", nil, in, &out)
	return out, err
}

// CreatePetForTutor usa POST /pets/{tutorId}; el tutor del path pisa el del body.
func (c *Client) CreatePetForTutor(ctx context.Context, tutorID string, in pets.CreateInput) (Pet, error) {
	var out Pet
	err := c.http.DoJSON(ctx, http.MethodPost, "/pets/"+escape(tutorID), nil, in, &out)
	return out, err
}

func (c *Client) GetPet(ctx context.Context, id string) (Pet, error) {
	var out Pet
	err := c.get(ctx, "/pets/"+escape(id), nil, &out)
	return out, err
}

func (c *Client) ListPets(ctx context.Context, q PetQuery) (Page[Pet], error) {
	var out Page[Pet]
	err := c.get(ctx, "/pets", q.values(), &out)
	return out, err
}

func (c *Client) SearchPets(ctx context.Context, q PetQuery) ([]Pet, error) {
	var out []Pet
	err := c.get(ctx, "/pets/search", q.values(), &out)
	return out, err
}

func (c *Client) UpdatePet(ctx context.Context, id string, patch pets.UpdateInput) (Pet, error) {
	var out Pet
	err := c.http.DoJSON(ctx, http.MethodPatch, "/pets/"+escape(id), nil, patch, &out)
	return out, err
}

func (c *Client) DeletePet(ctx context.Context, id string) error {
	return c.http.DoJSON(ctx, http.MethodDelete, "/pets/"+escape(id), nil, nil, nil)
}
