package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
)

var setupValidator sync.Once

// SetupValidator configures gin's validator once per process: errors name
// fields by their json (or form) key and the notblank tag is available.
func SetupValidator() {
	setupValidator.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(wireFieldName)
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	})
}

func wireFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return fld.Name
}

// FormatValidationErrors converts a binding error into the error envelope.
// Anything other than validator.ValidationErrors (malformed JSON, wrong
// types) yields a single validation error without details.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewValidationErrorResponse(describeBindError(err), requestID, nil)
	}

	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = dto.ValidationDetail{
			Field:   fe.Field(),
			Message: validationMessage(fe),
			Tag:     fe.Tag(),
			Value:   fmt.Sprint(fe.Value()),
		}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 validation response for err, or 413
// when the body was cut off by BodyLimit.
func HandleValidationError(c *gin.Context, err error) {
	if limit, ok := tooLarge(err); ok {
		abortTooLarge(c, limit)
		return
	}
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func describeBindError(err error) string {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return "Field " + typeErr.Field + " has the wrong type"
	case strings.Contains(err.Error(), "invalid UUID"):
		return "Request contains a malformed UUID"
	default:
		return "Invalid request body"
	}
}

// bounds are reported in characters for strings and as plain values otherwise.
func bound(prefix string) func(validator.FieldError) string {
	return func(fe validator.FieldError) string {
		if fe.Kind() == reflect.String {
			return prefix + fe.Param() + " characters"
		}
		return prefix + fe.Param()
	}
}

func fixed(msg string) func(validator.FieldError) string {
	return func(validator.FieldError) string { return msg }
}

func withParam(prefix string) func(validator.FieldError) string {
	return func(fe validator.FieldError) string { return prefix + fe.Param() }
}

var validationMessages = map[string]func(validator.FieldError) string{
	"required": fixed("This field is required"),
	"notblank": fixed("Must not be blank"),
	"uuid":     fixed("Invalid UUID format"),
	"min":      bound("Must be at least "),
	"max":      bound("Must be at most "),
	"len":      bound("Must be exactly "),
	"oneof":    withParam("Must be one of: "),
	"gte":      withParam("Must be greater than or equal to "),
	"lte":      withParam("Must be less than or equal to "),
	"gt":       withParam("Must be greater than "),
	"lt":       withParam("Must be less than "),
}

func validationMessage(fe validator.FieldError) string {
	if msg, ok := validationMessages[fe.Tag()]; ok {
		return msg(fe)
	}
	return "Invalid value"
}
