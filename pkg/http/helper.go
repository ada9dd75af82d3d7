package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "tablebook/pkg/errors"
)

// DecodeJSON decodes the request body into v, rejecting unknown fields.
// An empty body decodes to the zero value.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.InvalidInput("Invalid request body: " + err.Error())
	}
	return nil
}
