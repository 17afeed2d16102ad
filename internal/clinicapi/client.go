// Package clinicapi es el cliente Go de la API REST de la clínica. Replica los wrappers
// de request que usa la consola web.
package clinicapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vet-clinic-api/internal/middleware"
	"vet-clinic-api/internal/platform/httpclient"
)

type Client struct {
	http *httpclient.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

// WithBearer manda el token en todos los requests.
func (c *Client) WithBearer(token string) *Client {
	c.http.Header.Set("Authorization", "Bearer "+token)
	return c
}

// WithDebugUser identifica al actor cuando el server corre sin verifier.
func (c *Client) WithDebugUser(userID string) *Client {
	c.http.Header.Set(middleware.DebugUserHeader, userID)
	return c
}

// Page es el sobre de los listados paginados.
type Page[T any] struct {
	Data     []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Paging se embebe en las queries de listado. Cero => default del server.
type Paging struct {
	Page     int
	PageSize int
}

func (p Paging) set(v url.Values) {
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}
}

// ErrorMessage devuelve el "message" de la API si err es una respuesta de error.
func ErrorMessage(err error) string {
	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		return he.Message
	}
	return ""
}

// FieldErrors devuelve los errores por campo de una respuesta 400.
func FieldErrors(err error) map[string]string {
	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		return he.Errors
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	return c.http.DoJSON(ctx, http.MethodGet, withQuery(path, q), nil, nil, out)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// setIf agrega k sólo si v no está vacío.
func setIf(q url.Values, k, v string) {
	if v = strings.TrimSpace(v); v != "" {
		q.Set(k, v)
	}
}

func setBool(q url.Values, k string, v bool) {
	if v {
		q.Set(k, "true")
	}
}

func actorQuery(param, id string) url.Values {
	q := url.Values{}
	setIf(q, param, id)
	return q
}

func escape(id string) string { return url.PathEscape(id) }
