package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/module-swap/pkg/errors"
	"github.com/go-playground/validator/v10"
)

const (
	// MaxBodyBytes caps every JSON request body read by the API.
	MaxBodyBytes = 1 << 20

	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}()

// DecodeJSONBody decodes one JSON object into dest and validates it. Unknown
// fields and trailing data are rejected. An empty body leaves dest at its zero
// value so the service reports which fields are required.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	decoder := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return invalidBody(err)
	}
	if decoder.More() {
		return invalidBody(errors.New("body must contain a single JSON object"))
	}
	if err := validate.Struct(dest); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func invalidBody(err error) *pkgerrors.Error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
		WithDetails(map[string]any{"error": err.Error()})
}

func fieldErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return pkgerrors.FieldErrors(fields)
}

// fieldMessage mirrors the host's form errors: an out-of-range id reads as an
// invalid choice rather than a numeric bound.
func fieldMessage(fe validator.FieldError) string {
	isID := fe.Kind() == reflect.Int64 || fe.Kind() == reflect.Int
	switch tag := fe.Tag(); {
	case tag == "required":
		return msgRequired
	case (tag == "min" || tag == "gt") && isID:
		return msgInvalidChoice
	case tag == "min" || tag == "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case tag == "max" || tag == "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}
