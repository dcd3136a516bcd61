package types

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// MinYear is the earliest year accepted on education and certification entries.
const MinYear = 1900

// maxYearAhead is how far into the future a year may be (expected graduation).
const maxYearAhead = 10

var (
	validate     *validator.Validate
	validateOnce sync.Once

	// now is replaced in tests.
	now = time.Now
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("year", func(fl validator.FieldLevel) bool {
			return ValidYear(fl.Field().String())
		})
	})
	return validate
}

// ValidYear reports whether s is a four-digit year in [1900, currentYear+10].
func ValidYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return y >= MinYear && y <= now().Year()+maxYearAhead
}

// Validate checks a skill entry.
func (s *SkillEntry) Validate() error { return validateStruct(s) }

// Validate checks an experience entry and its nested projects.
func (e *ExperienceEntry) Validate() error {
	if err := validateStruct(e); err != nil {
		return err
	}
	if !e.Current && e.EndDate != "" && e.EndDate < e.StartDate {
		return &ValidationError{Field: "end_date", Message: "must not be before start_date"}
	}
	return nil
}

// Validate checks an education entry.
func (e *EducationEntry) Validate() error { return validateStruct(e) }

// Validate checks a certification entry.
func (c *CertificationEntry) Validate() error { return validateStruct(c) }

// validateStruct runs the validator and translates its first failure into a
// ValidationError.
func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: describeTag(fe)}
	}
	return &ValidationError{Message: err.Error()}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "year":
		return fmt.Sprintf("must be a year between %d and %d", MinYear, now().Year()+maxYearAhead)
	case "datetime":
		return "must be formatted as YYYY-MM"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
