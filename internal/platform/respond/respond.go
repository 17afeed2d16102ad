package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/validation"
)

// MaxJSONBody limita el body de requests JSON.
const MaxJSONBody = 1 << 20

var ErrInvalidJSON = errors.New("invalid json")

// ErrorBody es el formato de todo error de la API.
type ErrorBody struct {
	Message string            `json:"message"`
	Errors  validation.Errors `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Message: msg})
}

func Validation(w http.ResponseWriter, errs validation.Errors) {
	JSON(w, http.StatusBadRequest, ErrorBody{Message: "validation failed", Errors: errs})
}

// Internal loguea err con el logger del request y responde 500 sin filtrar detalles.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error("request failed", logger.Fields{"err": err})
	Error(w, http.StatusInternalServerError, "internal error")
}

// DecodeJSON decodifica el body en v. Body vacío o JSON inválido => ErrInvalidJSON.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}
