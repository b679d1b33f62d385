package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() map[string]any {
	return map[string]any{
		"name":        "Asha",
		"phone":       "9999999999",
		"serviceType": "Home Theatre",
		"screenSize":  "120in",
		"budgetRange": "1-2L",
		"city":        "Pune",
		"message":     "Need a quote",
	}
}

func TestValidateEnquiry_Valid(t *testing.T) {
	in, err := ValidateEnquiry(validPayload())
	require.NoError(t, err)
	assert.Equal(t, EnquiryInput{
		Name:        "Asha",
		Phone:       "9999999999",
		ServiceType: "Home Theatre",
		ScreenSize:  "120in",
		BudgetRange: "1-2L",
		City:        "Pune",
		Message:     "Need a quote",
	}, in)
}

func TestValidateEnquiry_EachMissingFieldRejected(t *testing.T) {
	for _, rule := range EnquiryFields {
		rule := rule
		t.Run(rule.Name, func(t *testing.T) {
			p := validPayload()
			delete(p, rule.Name)

			_, err := ValidateEnquiry(p)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Len(t, ve.Fields, 1)
			assert.Equal(t, rule.Name, ve.Fields[0].Field)
			assert.Equal(t, FieldMissing, ve.Fields[0].Code)
			assert.ErrorIs(t, err, ErrInvalidEnquiry)
		})
	}
}

func TestValidateEnquiry_NullTreatedAsMissing(t *testing.T) {
	p := validPayload()
	p["city"] = nil

	_, err := ValidateEnquiry(p)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []FieldError{{Field: "city", Code: FieldMissing, Message: "city is required"}}, ve.Fields)
}

func TestValidateEnquiry_EmptyAndBlank(t *testing.T) {
	p := validPayload()
	p["message"] = ""
	p["name"] = "   \t"

	_, err := ValidateEnquiry(p)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 2)
	// reported in rule-table order
	assert.Equal(t, "name", ve.Fields[0].Field)
	assert.Equal(t, "message", ve.Fields[1].Field)
	assert.Equal(t, FieldEmpty, ve.Fields[1].Code)
	assert.True(t, ve.Has("message"))
	assert.False(t, ve.Has("phone"))
}

func TestValidateEnquiry_WrongType(t *testing.T) {
	p := validPayload()
	p["phone"] = 9999999999.0
	p["screenSize"] = []any{"120in"}

	_, err := ValidateEnquiry(p)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 2)
	for _, f := range ve.Fields {
		assert.Equal(t, FieldInvalidType, f.Code)
	}
}

func TestValidateEnquiry_NilPayloadReportsAllFields(t *testing.T) {
	_, err := ValidateEnquiry(nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, len(EnquiryFields))
}

func TestValidateEnquiry_AllowListStripsExtrasAndServerFields(t *testing.T) {
	p := validPayload()
	p["foo"] = "bar"
	p["id"] = "client-chosen"
	p["createdAt"] = "1999-01-01T00:00:00Z"

	in, err := ValidateEnquiry(p)
	require.NoError(t, err)

	b, err := json.Marshal(in)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))

	assert.Len(t, out, 7)
	assert.NotContains(t, out, "foo")
	assert.NotContains(t, out, "id")
	assert.NotContains(t, out, "createdAt")
}

func TestValidateEnquiry_ValuesNotTransformed(t *testing.T) {
	p := validPayload()
	p["name"] = "  Asha  "
	p["message"] = "Line one\nLine two"

	in, err := ValidateEnquiry(p)
	require.NoError(t, err)
	assert.Equal(t, "  Asha  ", in.Name)
	assert.Equal(t, "Line one\nLine two", in.Message)
}

func TestValidationError_Message(t *testing.T) {
	ve := &ValidationError{Fields: []FieldError{
		{Field: "phone", Code: FieldMissing},
		{Field: "message", Code: FieldEmpty},
	}}
	assert.Equal(t, "invalid enquiry: phone missing, message empty", ve.Error())
	assert.True(t, errors.Is(ve, ErrInvalidEnquiry))
}

func TestNewEnquiry_RoundTripsInput(t *testing.T) {
	in, err := ValidateEnquiry(validPayload())
	require.NoError(t, err)

	now := time.Now().UTC()
	e := NewEnquiry("id-1", now, in)
	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, in, e.Input())
	assert.Equal(t, "enquiries", Enquiry{}.TableName())
}
