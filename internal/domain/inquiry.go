package domain

import (
	"context"
	"time"
)

type Contact struct {
	ID               string    `gorm:"primaryKey;size:32" json:"id"`
	Name             string    `gorm:"size:191;not null" json:"name"`
	OrganizationName string    `gorm:"size:191;not null" json:"organizationName"`
	Email            string    `gorm:"size:191;not null" json:"email"`
	ContactNumber    string    `gorm:"size:32;not null" json:"contactNumber"`
	Message          string    `gorm:"type:text;not null" json:"message"`
	CreatedAt        time.Time `gorm:"index" json:"createdAt"`
}

func (Contact) TableName() string { return "contacts" }

type Enquiry struct {
	ID      string  `gorm:"primaryKey;size:32" json:"id"`
	Name    string  `gorm:"size:191;not null" json:"name"`
	Email   string  `gorm:"size:191;not null" json:"email"`
	Company *string `gorm:"size:191" json:"company"`
	Message string  `gorm:"type:text;not null" json:"message"`
	// nil once the product has been deleted
	ProductID *string   `gorm:"size:32;index" json:"productId"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (Enquiry) TableName() string { return "enquiries" }

type ListFilter struct {
	Search string
	Offset int
	Limit  int
}

type ContactRepository interface {
	Create(ctx context.Context, c *Contact) error
	FindByID(ctx context.Context, id string) (*Contact, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ListFilter) ([]Contact, int64, error)
	Count(ctx context.Context) (int64, error)
}

type EnquiryRepository interface {
	Create(ctx context.Context, e *Enquiry) error
	FindByID(ctx context.Context, id string) (*Enquiry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ListFilter) ([]Enquiry, int64, error)
	Count(ctx context.Context) (int64, error)
}
