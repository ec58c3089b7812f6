package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/association-planning/internal/application"
	"github.com/example/association-planning/internal/calendar"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseSlot(fl.Field().String())
		return err == nil
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates it. Malformed bodies
// yield errBadRequestBody; rule violations a *application.ValidationError.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	return validateStruct(dst)
}

func validateStruct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	vErr := &application.ValidationError{FieldErrors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		vErr.FieldErrors[fieldName(fe)] = fieldMessage(fe)
	}
	return vErr
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		return fe.Field()
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "isodate":
		return "must be a date formatted as YYYY-MM-DD"
	case "slot":
		return "must be opening or closing"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, key string, vErr *application.ValidationError) calendar.Date {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return calendar.Date{}
	}
	d, err := calendar.ParseDate(value)
	if err != nil {
		addFieldError(vErr, key, "must be a date formatted as YYYY-MM-DD")
	}
	return d
}

func addFieldError(vErr *application.ValidationError, field, message string) {
	if vErr.FieldErrors == nil {
		vErr.FieldErrors = make(map[string]string)
	}
	vErr.FieldErrors[field] = message
}
