// Package domain defines the persistence models for customer enquiries
// submitted through the website contact form. These types are mapped with
// GORM (and BSON for the MongoDB store) and form the core data layer of the
// enquiry backend.
package domain

import "time"

// Enquiry represents one contact-form submission. Records are immutable once
// created: there is no UpdatedAt and no soft-delete marker.
//
// Fields:
//   - ID: UUID primary key (char(36)), assigned by the store.
//   - Name, Phone, ServiceType, ScreenSize, BudgetRange, City, Message:
//     client-supplied values, stored exactly as submitted.
//   - CreatedAt: UTC insertion time, assigned by the store.
type Enquiry struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"      bson:"_id"`
	Name        string    `json:"name"        gorm:"type:text;not null"            bson:"name"`
	Phone       string    `json:"phone"       gorm:"type:text;not null"            bson:"phone"`
	ServiceType string    `json:"serviceType" gorm:"type:text;not null"            bson:"service_type"`
	ScreenSize  string    `json:"screenSize"  gorm:"type:text;not null"            bson:"screen_size"`
	BudgetRange string    `json:"budgetRange" gorm:"type:text;not null"            bson:"budget_range"`
	City        string    `json:"city"        gorm:"type:text;not null"            bson:"city"`
	Message     string    `json:"message"     gorm:"type:text;not null"            bson:"message"`
	CreatedAt   time.Time `json:"createdAt"   gorm:"not null;index:idx_enquiries_created" bson:"created_at"`
}

// TableName returns the database table name for Enquiry.
func (Enquiry) TableName() string { return "enquiries" }

// EnquiryInput is the client-writable subset of an Enquiry. It is produced
// only by ValidateEnquiry, so every field is known to be a non-empty string.
type EnquiryInput struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	ServiceType string `json:"serviceType"`
	ScreenSize  string `json:"screenSize"`
	BudgetRange string `json:"budgetRange"`
	City        string `json:"city"`
	Message     string `json:"message"`
}

// NewEnquiry combines validated input with the store-owned fields.
func NewEnquiry(id string, createdAt time.Time, in EnquiryInput) *Enquiry {
	return &Enquiry{
		ID:          id,
		Name:        in.Name,
		Phone:       in.Phone,
		ServiceType: in.ServiceType,
		ScreenSize:  in.ScreenSize,
		BudgetRange: in.BudgetRange,
		City:        in.City,
		Message:     in.Message,
		CreatedAt:   createdAt,
	}
}

// CeilTime rounds t up to a multiple of d. Stores with coarser timestamp
// precision than time.Time use it so a stored createdAt is never earlier
// than the moment the create call began, and reads back unchanged.
func CeilTime(t time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return t
	}
	if r := t.Truncate(d); !r.Equal(t) {
		return r.Add(d)
	}
	return t
}

// Input returns the client-supplied portion of the record.
func (e Enquiry) Input() EnquiryInput {
	return EnquiryInput{
		Name:        e.Name,
		Phone:       e.Phone,
		ServiceType: e.ServiceType,
		ScreenSize:  e.ScreenSize,
		BudgetRange: e.BudgetRange,
		City:        e.City,
		Message:     e.Message,
	}
}
