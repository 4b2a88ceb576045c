package partner

import (
	"time"

	"github.com/backoffice/backend/internal/domain/partner"
	"github.com/google/uuid"
)

// =============================================================================
// Request DTOs
// =============================================================================

// CreatePartyRequest represents a request to create a party
type CreatePartyRequest struct {
	Code               string                 `json:"code" binding:"required,max=50"`
	Name               string                 `json:"name" binding:"required,max=200"`
	Kana               string                 `json:"kana" binding:"max=200"`
	Type               string                 `json:"type" binding:"required,oneof=customer supplier"`
	PostalCode         string                 `json:"postal_code" binding:"max=10"`
	Address            string                 `json:"address"`
	Phone              string                 `json:"phone" binding:"max=50"`
	Fax                string                 `json:"fax" binding:"max=50"`
	Email              string                 `json:"email" binding:"omitempty,email"`
	ClosingDay         *int                   `json:"closing_day" binding:"omitempty,min=1,max=31"`
	PaymentMonthOffset *int                   `json:"payment_month_offset" binding:"omitempty,min=0,max=12"`
	PaymentDay         *int                   `json:"payment_day" binding:"omitempty,min=1,max=31"`
	Notes              string                 `json:"notes"`
	Contacts           []CreateContactRequest `json:"contacts" binding:"omitempty,dive"`
}

// UpdatePartyRequest represents a request to update a party
type UpdatePartyRequest struct {
	Name               *string `json:"name" binding:"omitempty,max=200"`
	Kana               *string `json:"kana" binding:"omitempty,max=200"`
	PostalCode         *string `json:"postal_code" binding:"omitempty,max=10"`
	Address            *string `json:"address"`
	Phone              *string `json:"phone" binding:"omitempty,max=50"`
	Fax                *string `json:"fax" binding:"omitempty,max=50"`
	Email              *string `json:"email" binding:"omitempty,email"`
	ClosingDay         *int    `json:"closing_day" binding:"omitempty,min=1,max=31"`
	PaymentMonthOffset *int    `json:"payment_month_offset" binding:"omitempty,min=0,max=12"`
	PaymentDay         *int    `json:"payment_day" binding:"omitempty,min=1,max=31"`
	Notes              *string `json:"notes"`
}

// CreateContactRequest represents a request to add a contact person
type CreateContactRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Department string `json:"department" binding:"max=100"`
	Title      string `json:"title" binding:"max=100"`
	Phone      string `json:"phone" binding:"max=50"`
	Email      string `json:"email" binding:"omitempty,email"`
	IsPrimary  bool   `json:"is_primary"`
}

// UpdateContactRequest represents a request to update a contact person
type UpdateContactRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Department string `json:"department" binding:"max=100"`
	Title      string `json:"title" binding:"max=100"`
	Phone      string `json:"phone" binding:"max=50"`
	Email      string `json:"email" binding:"omitempty,email"`
	IsPrimary  bool   `json:"is_primary"`
}

// PartyListFilter represents filter options for listing parties
type PartyListFilter struct {
	Type     *partner.PartyType `form:"type" binding:"omitempty,oneof=customer supplier"`
	IsActive *bool              `form:"is_active"`
	Search   string             `form:"search"`
	Page     int                `form:"page"`
	PageSize int                `form:"page_size"`
	OrderBy  string             `form:"order_by"`
	OrderDir string             `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// PartyResponse represents a party in API responses
type PartyResponse struct {
	ID                 uuid.UUID         `json:"id"`
	Code               string            `json:"code"`
	Name               string            `json:"name"`
	Kana               string            `json:"kana,omitempty"`
	Type               partner.PartyType `json:"type"`
	PostalCode         string            `json:"postal_code,omitempty"`
	Address            string            `json:"address,omitempty"`
	Phone              string            `json:"phone,omitempty"`
	Fax                string            `json:"fax,omitempty"`
	Email              string            `json:"email,omitempty"`
	ClosingDay         int               `json:"closing_day"`
	PaymentMonthOffset int               `json:"payment_month_offset"`
	PaymentDay         int               `json:"payment_day"`
	Notes              string            `json:"notes,omitempty"`
	IsActive           bool              `json:"is_active"`
	Contacts           []ContactResponse `json:"contacts"`
	Version            int               `json:"version"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// ContactResponse represents a contact person in API responses
type ContactResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Department string    `json:"department,omitempty"`
	Title      string    `json:"title,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	IsPrimary  bool      `json:"is_primary"`
}

// PartyListResponse represents a party in list responses
type PartyListResponse struct {
	ID        uuid.UUID         `json:"id"`
	Code      string            `json:"code"`
	Name      string            `json:"name"`
	Kana      string            `json:"kana,omitempty"`
	Type      partner.PartyType `json:"type"`
	Phone     string            `json:"phone,omitempty"`
	Email     string            `json:"email,omitempty"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
}

// =============================================================================
// Mappers
// =============================================================================

// ToPartyResponse converts a domain party to a response DTO
func ToPartyResponse(p *partner.Party) PartyResponse {
	contacts := make([]ContactResponse, 0, len(p.Contacts))
	for i := range p.Contacts {
		contacts = append(contacts, ToContactResponse(&p.Contacts[i]))
	}

	return PartyResponse{
		ID:                 p.ID,
		Code:               p.Code,
		Name:               p.Name,
		Kana:               p.Kana,
		Type:               p.Type,
		PostalCode:         p.PostalCode,
		Address:            p.Address,
		Phone:              p.Phone,
		Fax:                p.Fax,
		Email:              p.Email,
		ClosingDay:         p.ClosingDay,
		PaymentMonthOffset: p.PaymentMonthOffset,
		PaymentDay:         p.PaymentDay,
		Notes:              p.Notes,
		IsActive:           p.IsActive,
		Contacts:           contacts,
		Version:            p.Version,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// ToContactResponse converts a domain contact to a response DTO
func ToContactResponse(c *partner.Contact) ContactResponse {
	return ContactResponse{
		ID:         c.ID,
		Name:       c.Name,
		Department: c.Department,
		Title:      c.Title,
		Phone:      c.Phone,
		Email:      c.Email,
		IsPrimary:  c.IsPrimary,
	}
}

// ToPartyListResponses converts domain parties to list response DTOs
func ToPartyListResponses(parties []partner.Party) []PartyListResponse {
	responses := make([]PartyListResponse, 0, len(parties))
	for i := range parties {
		p := &parties[i]
		responses = append(responses, PartyListResponse{
			ID:        p.ID,
			Code:      p.Code,
			Name:      p.Name,
			Kana:      p.Kana,
			Type:      p.Type,
			Phone:     p.Phone,
			Email:     p.Email,
			IsActive:  p.IsActive,
			CreatedAt: p.CreatedAt,
		})
	}
	return responses
}
