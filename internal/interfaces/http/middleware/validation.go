package middleware

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/dropship/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupOnce sync.Once

// SetupValidator registers the fulfillment validation tags on gin's validator
// and makes errors report JSON field names:
//
//	country  two ASCII letters, any case (normalised later by the DTO)
//	hscode   4 to 12 digits, optionally grouped with dots or spaces ("6109.10.00")
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("country", validCountry)
		_ = v.RegisterValidation("hscode", validHSCode)
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func validCountry(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func validHSCode(fl validator.FieldLevel) bool {
	digits := 0
	for _, r := range fl.Field().String() {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ' ':
		default:
			return false
		}
	}
	return digits >= 4 && digits <= 12
}

// IsValidationError reports whether err came from struct validation
func IsValidationError(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve)
}

// FormatValidationErrors builds the 400 envelope listing every rejected field
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			details = append(details, dto.ValidationDetail{Field: fieldPath(fe), Message: validationMessage(fe)})
		}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// fieldPath drops the root struct name: "FulfillRequest.destination_address.city" -> "destination_address.city"
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "country":
		return "Must be a two-letter country code"
	case "hscode":
		return "Must be an HS classification code of 4 to 12 digits"
	case "email":
		return "Invalid email format"
	case "len":
		return "Must be exactly " + p + " characters"
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + p + " characters"
		}
		return "Must be at most " + p
	case "oneof":
		return "Must be one of: " + p
	case "gt":
		return "Must be greater than " + p
	case "gte":
		return "Must be greater than or equal to " + p
	case "lte":
		return "Must be less than or equal to " + p
	default:
		return "Invalid value"
	}
}
