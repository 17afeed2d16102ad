package medicalrecords

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strconv"
)

// WriteArchive escribe en w un zip con todos los adjuntos de rec, con sus nombres originales.
// Nombres repetidos se prefijan con el primer contador libre ("2_exame.pdf").
func (s *Service) WriteArchive(ctx context.Context, rec Record, w io.Writer) error {
	if s.files == nil {
		return fmt.Errorf("attachments storage not configured")
	}

	zw := zip.NewWriter(w)
	used := make(map[string]bool, len(rec.Attachments))

	for _, a := range rec.Attachments {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := a.FileName
		for n := 2; used[name]; n++ {
			name = strconv.Itoa(n) + "_" + a.FileName
		}
		used[name] = true

		if err := s.copyInto(ctx, zw, name, a); err != nil {
			return err
		}
	}
	return zw.Close()
}

func (s *Service) copyInto(ctx context.Context, zw *zip.Writer, name string, a Attachment) error {
	src, err := s.files.Open(ctx, a.StoredName)
	if err != nil {
		return fmt.Errorf("open attachment %s: %w", a.StoredName, err)
	}
	defer src.Close()

	dst, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: a.UploadedAt,
	})
	if err != nil {
		return fmt.Errorf("zip entry %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("zip copy %s: %w", name, err)
	}
	return nil
}
