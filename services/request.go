package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// decodeRequest decodes a JSON body into v and validates its struct tags.
// An empty body decodes as {}.
func decodeRequest(body io.Reader, v any) error {
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &ValidationError{Message: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	return validateRequest(v)
}

func validateRequest(v any) error {
	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return &ValidationError{Message: strings.Join(msgs, "; ")}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}
