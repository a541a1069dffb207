package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/school-core/internal"
)

// DateLayouts are the date formats accepted from uploaded sheets, tried in order.
var DateLayouts = []string{"2006-01-02", "02/01/2006", "01/02/2006", "02-01-2006"}

// FieldError is the first failed check of one field.
type FieldError struct {
	Field   string
	Message string
	Value   string
}

type checkFunc func(value string) (message string, ok bool)

type FieldValidator struct {
	FieldName string
	Value     string
	required  bool
	checks    []checkFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{}
}

func (v *ValidationBuilder) Field(name, value string) *FieldValidator {
	fv := &FieldValidator{FieldName: name, Value: strings.TrimSpace(value)}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.required = true
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	fv.checks = append(fv.checks, func(value string) (string, bool) {
		if len([]rune(value)) < min {
			return fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min), false
		}
		return "", true
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.checks = append(fv.checks, func(value string) (string, bool) {
		if len([]rune(value)) > max {
			return fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max), false
		}
		return "", true
	})
	return fv
}

// OneOf compares case-insensitively.
func (fv *FieldValidator) OneOf(allowed ...string) *FieldValidator {
	fv.checks = append(fv.checks, func(value string) (string, bool) {
		for _, a := range allowed {
			if strings.EqualFold(value, a) {
				return "", true
			}
		}
		return fmt.Sprintf("%s must be one of: %s", fv.FieldName, strings.Join(allowed, ", ")), false
	})
	return fv
}

func (fv *FieldValidator) Date() *FieldValidator {
	fv.checks = append(fv.checks, func(value string) (string, bool) {
		if _, err := ParseDate(value); err != nil {
			return fmt.Sprintf("%s has an invalid date format, expected YYYY-MM-DD or DD/MM/YYYY", fv.FieldName), false
		}
		return "", true
	})
	return fv
}

func (fv *FieldValidator) Number() *FieldValidator {
	fv.checks = append(fv.checks, func(value string) (string, bool) {
		if _, err := ParseNumber(value); err != nil {
			return fmt.Sprintf("%s must be a number", fv.FieldName), false
		}
		return "", true
	})
	return fv
}

func (fv *FieldValidator) MinNumber(min float64) *FieldValidator {
	fv.checks = append(fv.checks, func(value string) (string, bool) {
		if n, err := ParseNumber(value); err == nil && n < min {
			return fmt.Sprintf("%s must be at least %s", fv.FieldName, FormatNumber(min)), false
		}
		return "", true
	})
	return fv
}

func (fv *FieldValidator) MaxNumber(max float64) *FieldValidator {
	fv.checks = append(fv.checks, func(value string) (string, bool) {
		if n, err := ParseNumber(value); err == nil && n > max {
			return fmt.Sprintf("%s must not exceed %s", fv.FieldName, FormatNumber(max)), false
		}
		return "", true
	})
	return fv
}

func (fv *FieldValidator) Positive() *FieldValidator {
	fv.checks = append(fv.checks, func(value string) (string, bool) {
		if n, err := ParseNumber(value); err == nil && n <= 0 {
			return fmt.Sprintf("%s must be greater than 0", fv.FieldName), false
		}
		return "", true
	})
	return fv
}

func (fv *FieldValidator) Custom(check func(value string) (message string, ok bool)) *FieldValidator {
	fv.checks = append(fv.checks, check)
	return fv
}

func (fv *FieldValidator) validate() (FieldError, bool) {
	if fv.Value == "" {
		if fv.required {
			return FieldError{Field: fv.FieldName, Message: fmt.Sprintf("%s is required", fv.FieldName)}, false
		}
		return FieldError{}, true
	}
	for _, check := range fv.checks {
		if message, ok := check(fv.Value); !ok {
			return FieldError{Field: fv.FieldName, Message: message, Value: fv.Value}, false
		}
	}
	return FieldError{}, true
}

// Errors returns at most one error per field, in the order fields were added.
func (v *ValidationBuilder) Errors() []FieldError {
	var errs []FieldError
	for _, field := range v.fields {
		if fe, ok := field.validate(); !ok {
			errs = append(errs, fe)
		}
	}
	return errs
}

func (v *ValidationBuilder) First() (FieldError, bool) {
	for _, field := range v.fields {
		if fe, ok := field.validate(); !ok {
			return fe, true
		}
	}
	return FieldError{}, false
}

func (v *ValidationBuilder) Validate() *internal.AppError {
	errs := v.Errors()
	if len(errs) == 0 {
		return nil
	}
	fields := make([]internal.ValidationFieldError, len(errs))
	for i, fe := range errs {
		fields[i] = internal.ValidationFieldError{Field: fe.Field, Message: fe.Message}
	}
	return internal.NewValidationFieldErrors(fields)
}

func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	// spreadsheets often export dates with a midnight time component
	if i := strings.IndexAny(value, " T"); i > 0 && len(value) > 10 {
		value = value[:i]
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func ParseNumber(value string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("not a finite number: %q", value)
	}
	return n, nil
}

func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
