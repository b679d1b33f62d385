package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Field error codes reported in FieldError.Code.
const (
	FieldMissing     = "missing"
	FieldEmpty       = "empty"
	FieldInvalidType = "invalid_type"
)

// ErrInvalidEnquiry is matched by every *ValidationError via errors.Is.
var ErrInvalidEnquiry = errors.New("invalid enquiry")

// FieldRule describes one writable enquiry field. Every rule is required,
// must be a JSON string and must contain at least one non-space character.
type FieldRule struct {
	Name string
	set  func(*EnquiryInput, string)
}

// EnquiryFields is the allow-list of client-writable fields, in the order
// errors are reported. Keys outside this table are ignored.
var EnquiryFields = []FieldRule{
	{Name: "name", set: func(in *EnquiryInput, v string) { in.Name = v }},
	{Name: "phone", set: func(in *EnquiryInput, v string) { in.Phone = v }},
	{Name: "serviceType", set: func(in *EnquiryInput, v string) { in.ServiceType = v }},
	{Name: "screenSize", set: func(in *EnquiryInput, v string) { in.ScreenSize = v }},
	{Name: "budgetRange", set: func(in *EnquiryInput, v string) { in.BudgetRange = v }},
	{Name: "city", set: func(in *EnquiryInput, v string) { in.City = v }},
	{Name: "message", set: func(in *EnquiryInput, v string) { in.Message = v }},
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"   example:"phone"`
	Code    string `json:"code"    example:"missing"`
	Message string `json:"message" example:"phone is required"`
}

// ValidationError lists every field that failed validation. It is safe to
// serialize directly to API clients.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field+" "+f.Code)
	}
	return fmt.Sprintf("invalid enquiry: %s", strings.Join(names, ", "))
}

// Is lets callers match any validation failure with errors.Is(err, ErrInvalidEnquiry).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidEnquiry }

// Has reports whether field is among the failures.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ValidateEnquiry checks an untrusted, already-decoded JSON object against
// EnquiryFields. On success the returned input holds the seven writable
// values exactly as sent. Server-owned keys (id, createdAt) and unknown keys
// are dropped. On failure it returns a *ValidationError covering all fields.
func ValidateEnquiry(payload map[string]any) (EnquiryInput, error) {
	var (
		in   EnquiryInput
		errs []FieldError
	)
	for _, rule := range EnquiryFields {
		raw, present := payload[rule.Name]
		if !present || raw == nil {
			errs = append(errs, FieldError{Field: rule.Name, Code: FieldMissing, Message: rule.Name + " is required"})
			continue
		}
		s, ok := raw.(string)
		if !ok {
			errs = append(errs, FieldError{Field: rule.Name, Code: FieldInvalidType, Message: rule.Name + " must be a string"})
			continue
		}
		if strings.TrimSpace(s) == "" {
			errs = append(errs, FieldError{Field: rule.Name, Code: FieldEmpty, Message: rule.Name + " must not be empty"})
			continue
		}
		rule.set(&in, s)
	}
	if len(errs) > 0 {
		return EnquiryInput{}, &ValidationError{Fields: errs}
	}
	return in, nil
}
