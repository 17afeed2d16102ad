package paging

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage mantiene (Page-1)*PageSize dentro de int.
	MaxPage = math.MaxInt / MaxPageSize
)

// Params es paginación por offset, 1-based. PageSize 0 => sin paginar (endpoints /search).
type Params struct {
	Page     int
	PageSize int
}

// Page es el sobre de respuesta de los listados.
type Page[T any] struct {
	Data     []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// FromQuery lee page/pageSize aplicando defaults (1, 10) y tope MaxPageSize.
func FromQuery(r *http.Request) Params {
	q := r.URL.Query()
	return Params{
		Page:     atoiOr(q.Get("page"), DefaultPage),
		PageSize: atoiOr(q.Get("pageSize"), DefaultPageSize),
	}.Normalize()
}

func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Params) Unbounded() bool { return p.PageSize <= 0 }

func (p Params) Offset() int {
	if p.Unbounded() || p.Page < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Slice devuelve la página de items. Página fuera de rango => slice vacío.
func Slice[T any](items []T, p Params) []T {
	if p.Unbounded() {
		return items
	}
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PageSize
	if end > len(items) || end < start {
		end = len(items)
	}
	return items[start:end]
}

// NewPage arma el sobre. Mapea data con fn para pasar de modelo a response.
func NewPage[T, R any](items []T, total int, p Params, fn func(T) R) Page[R] {
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return Page[R]{Data: out, Total: total, Page: p.Page, PageSize: p.PageSize}
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
