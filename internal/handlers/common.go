package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validationMessages flattens validator errors into a field -> reason
// map for JSON error bodies.
func validationMessages(err error) map[string]string {
	messages := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		messages["request"] = err.Error()
		return messages
	}
	for _, e := range validationErrors {
		messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return messages
}
