package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"vet-clinic-api/internal/ports/files"
)

// Storage guarda adjuntos en un directorio local como "<uuid>_<nombre original>".
type Storage struct {
	dir   string
	newID func() string
}

func New(dir string) (*Storage, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("local storage: empty dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: create dir: %w", err)
	}
	return &Storage{dir: dir, newID: uuid.NewString}, nil
}

func (s *Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stored := s.newID() + "_" + cleanName(name)

	f, err := os.OpenFile(filepath.Join(s.dir, stored), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("local storage: create %s: %w", stored, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("local storage: write %s: %w", stored, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("local storage: close %s: %w", stored, err)
	}
	return stored, nil
}

func (s *Storage) Open(ctx context.Context, stored string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if stored == "" || stored != filepath.Base(stored) {
		return nil, files.ErrNotFound
	}

	f, err := os.Open(filepath.Join(s.dir, stored))
	if errors.Is(err, os.ErrNotExist) {
		return nil, files.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("local storage: open %s: %w", stored, err)
	}
	return f, nil
}

func (s *Storage) Remove(ctx context.Context, stored string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if stored == "" || stored != filepath.Base(stored) {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, stored))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("local storage: remove %s: %w", stored, err)
	}
	return nil
}

// cleanName se queda con el último segmento y quita separadores: el nombre viene del cliente.
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}
