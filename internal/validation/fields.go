package validation

import "crelo/internal/models"

// Fields collects per-field validation messages keyed by JSON field name.
type Fields map[string]string

// Check records msg for field when ok is false. The first message per field wins.
func (f Fields) Check(ok bool, field, msg string) {
	if ok {
		return
	}
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// CheckErr records err's message for field when err is non-nil.
func (f Fields) CheckErr(err error, field string) {
	if err != nil {
		f.Check(false, field, err.Error())
	}
}

// Err returns a VALIDATION_ERROR carrying the collected fields, or nil.
func (f Fields) Err() error {
	if len(f) == 0 {
		return nil
	}
	return models.NewFieldValidationError(map[string]string(f))
}
