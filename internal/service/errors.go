package service

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/repo"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error pairs an error kind with a message that is safe to show to the client.
// The kind is one of ErrValidation, ErrUnauthorized, repo.ErrorConflict or repo.ErrorNotFound.
type Error struct {
	Kind    error
	Message string
	// Code is a stable machine-readable reason, empty for most errors.
	Code string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func invalid(msg string) error  { return &Error{Kind: ErrValidation, Message: msg} }
func conflict(msg string) error { return &Error{Kind: repo.ErrorConflict, Message: msg} }
func notFound(msg string) error { return &Error{Kind: repo.ErrorNotFound, Message: msg} }

// badCredentials is the 401 for a wrong password, as opposed to a missing or
// expired token.
func badCredentials(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg, Code: model.CodeBadCredentials}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// bcrypt limits input in bytes, while max counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	return v
}

// checkStruct runs the validate tags of a request DTO and returns the first
// failure as a ValidationError.
func checkStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("invalid request")
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return invalid(field + " is required")
	case "email":
		return invalid("invalid email")
	case "min":
		return invalid(field + " must be at least " + fe.Param() + " characters")
	case "max":
		return invalid(field + " must be at most " + fe.Param() + " characters")
	case "maxbytes":
		return invalid(field + " must be at most " + fe.Param() + " bytes")
	}
	return invalid("invalid " + field)
}
