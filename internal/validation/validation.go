// Package validation configures the request validator with the
// university's identifier formats.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/gau-id-api/internal/security"
)

var (
	universityEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@(student\.)?gau\.ac\.ke$`)
	staffRegNumber  = regexp.MustCompile(`^(ADM|STF)\d{3}$`)
	studentRegNum   = regexp.MustCompile(`^S\d{3}/\d{4}/\d{2}$`)
	kenyanPhone     = regexp.MustCompile(`^\+254[0-9]{9}$`)
)

// YearsOfStudy lists accepted year_of_study values.
var YearsOfStudy = []string{"Year 1", "Year 2", "Year 3", "Year 4", "Year 5", "Postgraduate"}

// New returns a validator with the custom tags gau_email, reg_number,
// ke_phone, strong_password and year_of_study registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	must(v.RegisterValidation("gau_email", func(fl validator.FieldLevel) bool {
		return IsUniversityEmail(fl.Field().String())
	}))
	must(v.RegisterValidation("reg_number", func(fl validator.FieldLevel) bool {
		return IsRegNumber(fl.Field().String())
	}))
	must(v.RegisterValidation("ke_phone", func(fl validator.FieldLevel) bool {
		return kenyanPhone.MatchString(strings.TrimSpace(fl.Field().String()))
	}))
	must(v.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		return len(security.PasswordProblems(fl.Field().String())) == 0
	}))
	must(v.RegisterValidation("year_of_study", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, year := range YearsOfStudy {
			if value == year {
				return true
			}
		}
		return false
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// IsUniversityEmail reports whether email belongs to the university domain.
func IsUniversityEmail(email string) bool {
	return universityEmail.MatchString(strings.TrimSpace(email))
}

// IsRegNumber accepts ADM123, STF123 and S123/4567/89 shapes.
func IsRegNumber(reg string) bool {
	reg = strings.ToUpper(strings.TrimSpace(reg))
	return staffRegNumber.MatchString(reg) || studentRegNum.MatchString(reg)
}

// IsStaffRegNumber reports whether reg is an ADM or STF number.
func IsStaffRegNumber(reg string) bool {
	return staffRegNumber.MatchString(strings.ToUpper(strings.TrimSpace(reg)))
}

// Messages flattens validator errors into readable sentences. Other errors
// are returned as a single message.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, describe(fieldErr))
	}
	return messages
}

func describe(fieldErr validator.FieldError) string {
	field := fieldErr.Field()
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gau_email":
		return "Email must be a valid GAU email address (@gau.ac.ke or @student.gau.ac.ke)"
	case "reg_number":
		return "Registration number must be in the format S123/4567/89, ADM123 or STF123"
	case "ke_phone":
		return fmt.Sprintf("%s must be in the format +254XXXXXXXXX", field)
	case "strong_password":
		problems := security.PasswordProblems(fmt.Sprint(fieldErr.Value()))
		if len(problems) > 0 {
			return strings.Join(problems, "; ")
		}
		return "Password is too weak"
	case "year_of_study":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(YearsOfStudy, ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fieldErr.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fieldErr.Param(), " ", ", "))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	}
	return fmt.Sprintf("%s failed the %s check", field, fieldErr.Tag())
}
