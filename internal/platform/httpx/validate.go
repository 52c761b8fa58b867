package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Bind decodes the JSON body into target and validates it. On failure it
// writes a 400 rejection and returns false.
func Bind(w http.ResponseWriter, r *http.Request, v *validator.Validate, target any) bool {
	if err := DecodeJSON(r, target); err != nil {
		Reject(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	if err := v.Struct(target); err != nil {
		Reject(w, http.StatusBadRequest, "Validation failed", ValidationDetail(err))
		return false
	}
	return true
}

// ValidationDetail flattens validator errors into "field: tag" pairs.
func ValidationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+": "+fe.Tag())
	}
	return strings.Join(msgs, ", ")
}
