// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"microblog/internal/models"

	"github.com/go-playground/validator/v10"
)

const (
	MinPasswordLen = 8
	// MaxPasswordLen is bcrypt's input limit in bytes.
	MaxPasswordLen = 72
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates the `validate` tags on s and returns a models validation
// error naming the first failing field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return models.NewValidationError(describe(verrs[0]))
	}
	return models.NewValidationError(err.Error())
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	case "username":
		return fmt.Sprintf("%s can only contain letters, numbers, dots, underscores and hyphens", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return models.NewValidationError("username is required")
	}
	if utf8.RuneCountInString(username) > models.MaxUsernameLen {
		return models.NewValidationError(fmt.Sprintf("username must be at most %d characters", models.MaxUsernameLen))
	}
	if !usernameRegex.MatchString(username) {
		return models.NewValidationError("username can only contain letters, numbers, dots, underscores and hyphens")
	}
	return nil
}

// ValidateEmail checks the address syntax and the stored length limit.
func ValidateEmail(email string) error {
	if email == "" {
		return models.NewValidationError("email is required")
	}
	if utf8.RuneCountInString(email) > models.MaxEmailLen {
		return models.NewValidationError(fmt.Sprintf("email must be at most %d characters", models.MaxEmailLen))
	}
	if err := validate.Var(email, "email"); err != nil {
		return models.NewValidationError("email must be a valid email address")
	}
	return nil
}

// ValidatePassword enforces the length bounds. The upper bound is in bytes
// because bcrypt rejects longer inputs.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return models.NewValidationError(fmt.Sprintf("password must be at least %d characters long", MinPasswordLen))
	}
	if len(password) > MaxPasswordLen {
		return models.NewValidationError(fmt.Sprintf("password must not exceed %d bytes", MaxPasswordLen))
	}
	return nil
}

// ValidatePostBody requires 1 to MaxPostBodyLen characters of non-blank text.
func ValidatePostBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return models.NewValidationError("post body is required")
	}
	if utf8.RuneCountInString(body) > models.MaxPostBodyLen {
		return models.NewValidationError(fmt.Sprintf("post body must be at most %d characters", models.MaxPostBodyLen))
	}
	return nil
}

func ValidateAboutMe(aboutMe string) error {
	if utf8.RuneCountInString(aboutMe) > models.MaxAboutMeLen {
		return models.NewValidationError(fmt.Sprintf("about_me must be at most %d characters", models.MaxAboutMeLen))
	}
	return nil
}
