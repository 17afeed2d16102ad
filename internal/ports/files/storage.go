package files

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("file not found")

// Storage guarda adjuntos de historias clínicas.
type Storage interface {
	// Save persiste r bajo un nombre único derivado de name y devuelve ese nombre.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, stored string) (io.ReadCloser, error)
	// Remove borra un adjunto guardado. Borrar uno inexistente no es error.
	Remove(ctx context.Context, stored string) error
}
