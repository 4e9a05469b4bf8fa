package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/google/uuid"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

var (
	permissionNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	roleNamePattern       = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _-]*$`)
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case *string:
			if v == nil || strings.TrimSpace(*v) == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		s, ok := stringValue(value)
		if ok && utf8.RuneCountInString(s) > max {
			message := fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max)
			return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

// Matches rejects non-empty values that do not match pattern; hint describes the allowed set.
func (fv *FieldValidator) Matches(pattern *regexp.Regexp, hint string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		s, ok := stringValue(value)
		if ok && s != "" && !pattern.MatchString(s) {
			message := fmt.Sprintf("%s %s", fv.FieldName, hint)
			return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeInvalidName)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) UUID() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		s, ok := stringValue(value)
		if ok && s != "" {
			if _, err := uuid.Parse(s); err != nil {
				message := fmt.Sprintf("%s must be a valid identifier", fv.FieldName)
				return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeInvalidID)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Validate runs every field and collects all failures into one VALIDATION_FAILED error.
// Only the first failing rule of each field is reported.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if details, ok := appErr.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
			} else {
				validationErrors = append(validationErrors, errors.ValidationError{
					Field:   field.FieldName,
					Message: appErr.Message,
					Code:    string(appErr.Code),
				})
			}
			break
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}

// PermissionName applies the permission naming rules to a builder field.
func PermissionName(v *ValidationBuilder, field, name string) {
	v.Field(field, name).
		Required().
		MaxLength(MaxNameLength).
		Matches(permissionNamePattern, "may only contain letters, numbers, underscores and hyphens")
}

// RoleName applies the role naming rules to a builder field.
func RoleName(v *ValidationBuilder, field, name string) {
	v.Field(field, name).
		Required().
		MaxLength(MaxNameLength).
		Matches(roleNamePattern, "must start with a letter or number and may only contain letters, numbers, spaces, underscores and hyphens")
}

func Description(v *ValidationBuilder, field string, description *string) {
	v.Field(field, description).MaxLength(MaxDescriptionLength)
}

func ValidatePermissionName(name string) *errors.AppError {
	v := NewValidator()
	PermissionName(v, "name", name)
	return v.Validate()
}

func ValidateRoleName(name string) *errors.AppError {
	v := NewValidator()
	RoleName(v, "name", name)
	return v.Validate()
}

func ValidateID(field, id string) *errors.AppError {
	v := NewValidator()
	v.Field(field, id).Required().UUID()
	return v.Validate()
}
