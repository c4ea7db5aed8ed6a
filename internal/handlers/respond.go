package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shwemart/shwemart/internal/errs"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	e := errs.From(err)
	respondJSON(w, e.Status, map[string]string{
		"message": e.Message,
		"error":   e.Code,
	})
}

// decodeAndValidate parses the JSON body into dst and runs its validation
// tags. Handlers behind this never see a malformed shape.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.Invalid("Invalid request body.")
	}
	if err := validate.Struct(dst); err != nil {
		return errs.Invalid("Invalid request body.")
	}
	return nil
}

// normalizePhone strips the local 09 dialing prefix so every phone is
// stored in its normalized form.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "09") {
		return phone[2:]
	}
	return phone
}
