package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterCustomValidations adds the project's tags to gin's validator engine.
func RegisterCustomValidations() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
				return IsValidUsername(fl.Field().String())
			})
		}
	})
}

// IsValidUsername allows letters, digits and @/./+/-/_ only.
func IsValidUsername(username string) bool {
	if username == "" {
		return false
	}
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '@', '.', '+', '-', '_':
			continue
		}
		return false
	}
	return true
}

// FieldErrors keys validation failures by form field name.
type FieldErrors map[string]string

func (fe FieldErrors) Add(field, message string) {
	if _, exists := fe[field]; !exists {
		fe[field] = message
	}
}

func (fe FieldErrors) Any() bool {
	return len(fe) > 0
}

// Error lets services return field errors directly; use errors.As to get them back.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	messages := make([]string, 0, len(keys))
	for _, k := range keys {
		messages = append(messages, k+": "+fe[k])
	}
	return strings.Join(messages, "; ")
}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

// ToFieldErrors converts binding errors to per-field messages. Errors that are not
// validation errors (malformed multipart bodies and the like) land under "__all__".
func ToFieldErrors(err error) FieldErrors {
	out := FieldErrors{}
	if err == nil {
		return out
	}

	var existing FieldErrors
	if errors.As(err, &existing) {
		for k, v := range existing {
			out.Add(k, v)
		}
		return out
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		out.Add("__all__", err.Error())
		return out
	}

	for _, fieldError := range validationErrors {
		out.Add(getFormKey(fieldError.Field()), getFieldErrorMessage(fieldError))
	}
	return out
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	if fe.Field() == "AgreeTerms" {
		return "You must agree to the terms and conditions."
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", field)
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "The two password fields didn't match."
	case "oneof":
		return fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", fe.Value())
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must contain at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must have at most %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", field, fe.Param())
	case "alphanumunicode", "username":
		return fmt.Sprintf("%s may contain only letters, numbers, and @/./+/-/_ characters.", field)
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}

var fieldNames = map[string]string{
	"Username":    "Username",
	"Email":       "Email",
	"Password":    "Password",
	"Password1":   "Password",
	"Password2":   "Password confirmation",
	"FirstName":   "First name",
	"LastName":    "Last name",
	"Role":        "Role",
	"AgreeTerms":  "Terms agreement",
	"Title":       "Title",
	"CompanyName": "Company name",
	"Location":    "Location",
	"Description": "Description",
	"CoverLetter": "Cover letter",
	"Action":      "Action",
	"UserIDs":     "Selected users",
}

var formKeys = map[string]string{
	"Password1":   "password1",
	"Password2":   "password2",
	"FirstName":   "first_name",
	"LastName":    "last_name",
	"AgreeTerms":  "agree_terms",
	"CompanyName": "company_name",
	"CoverLetter": "cover_letter",
	"UserIDs":     "user_ids",
}

func getFieldName(field string) string {
	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}

func getFormKey(field string) string {
	if key, ok := formKeys[field]; ok {
		return key
	}
	return strings.ToLower(field)
}
