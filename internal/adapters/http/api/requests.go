package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

var validate = validator.New()

// markRequest is the body of POST /api/mark.
type markRequest struct {
	Liked        bool   `json:"liked"`
	CompanyIndex *int   `json:"company_index" validate:"required"`
	RequestID    string `json:"request_id" validate:"omitempty,max=128"`
}

// usernameRequest is the body of POST /api/set-username.
type usernameRequest struct {
	Username string `json:"username" validate:"required"`
}

// decodeRequest parses a JSON body into dst and validates it. Validation
// failures keep the validator.ValidationErrors in the chain.
func decodeRequest(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// missingField reports whether err is a validation failure on field.
func missingField(err error, field string) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Field() == field {
			return true
		}
	}
	return false
}
