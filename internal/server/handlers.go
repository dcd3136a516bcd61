package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// parseID reads the {id} path value as a UUID.
func parseID(r *http.Request, kind string) (uuid.UUID, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrInvalidID{Kind: kind, Value: raw}
	}
	return id, nil
}

// validatable is implemented by the pointer form of every entry type.
type validatable[T any] interface {
	*T
	Validate() error
}

// decodeEntry decodes the request body into T and validates it.
func decodeEntry[T any, PT validatable[T]](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, &ErrInvalidBody{Cause: err}
	}
	if err := PT(&v).Validate(); err != nil {
		return v, err
	}
	return v, nil
}

func listOf[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}
