package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs struct tag validation and reports failures as CodeValidation.
func validateInput(op string, in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domainagg.Validation(op, err.Error())
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return domainagg.Validation(op, strings.Join(parts, "; "))
}
