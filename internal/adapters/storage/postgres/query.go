package postgres

import (
	"context"
	"database/sql"
	"strconv"

	"vet-clinic-api/internal/platform/paging"
)

func itoa(n int) string { return strconv.Itoa(n) }

// count ejecuta SELECT COUNT(*) con el mismo FROM + WHERE que el listado.
func count(ctx context.Context, db *sql.DB, from string, w *where) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) "+from+w.String(), w.args...).Scan(&n)
	return n, err
}

// limit agrega LIMIT/OFFSET salvo que p sea sin paginar.
func limit(w *where, p paging.Params) string {
	if p.Unbounded() {
		return ""
	}
	return " LIMIT " + w.arg(p.PageSize) + " OFFSET " + w.arg(p.Offset())
}
