package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Lead is a generic inbound inquiry captured from the marketing site.
type Lead struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	Email     string       `gorm:"type:text;not null;index"`
	Message   string       `gorm:"type:text"`
	Source    string       `gorm:"type:text"`
	CreatedAt time.Time
}

func (Lead) TableName() string { return "leads" }

type ContactRequest struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	Email     string       `gorm:"type:text;not null"`
	Subject   string       `gorm:"type:text"`
	Message   string       `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (ContactRequest) TableName() string { return "contact_requests" }

type AccountantApplication struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	Name            string       `gorm:"type:text;not null"`
	Email           string       `gorm:"type:text;not null"`
	Phone           string       `gorm:"type:text"`
	LicenseNumber   string       `gorm:"type:text;not null"`
	YearsExperience int          `gorm:"not null"`
	Message         string       `gorm:"type:text"`
	CreatedAt       time.Time
}

func (AccountantApplication) TableName() string { return "accountant_applications" }

type SubmitLeadRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

type SubmitContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type SubmitApplicationRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	LicenseNumber   string `json:"license_number"`
	YearsExperience int    `json:"years_experience"`
	Message         string `json:"message"`
}

type SubmitResponse struct {
	ID string `json:"id"`
}

type ListRequest struct {
	PageToken string
	PageSize  int
}

type Repository interface {
	InsertLead(ctx context.Context, db *gorm.DB, lead *Lead) error
	InsertContact(ctx context.Context, db *gorm.DB, contact *ContactRequest) error
	InsertApplication(ctx context.Context, db *gorm.DB, application *AccountantApplication) error
	ListLeads(ctx context.Context, db *gorm.DB, afterID int64, limit int) ([]Lead, error)
}

type Service interface {
	SubmitLead(ctx context.Context, req SubmitLeadRequest) (SubmitResponse, error)
	SubmitContact(ctx context.Context, req SubmitContactRequest) (SubmitResponse, error)
	SubmitApplication(ctx context.Context, req SubmitApplicationRequest) (SubmitResponse, error)
}

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "invalid submission: " + strings.Join(names, ", ")
}
