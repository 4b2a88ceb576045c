package partner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/text/width"
)

// PartyType distinguishes customers from suppliers
type PartyType string

const (
	PartyTypeCustomer PartyType = "customer"
	PartyTypeSupplier PartyType = "supplier"
)

// IsValid reports whether the party type is a known value
func (t PartyType) IsValid() bool {
	return t == PartyTypeCustomer || t == PartyTypeSupplier
}

// Party represents a business partner (customer or supplier)
// It is the aggregate root for partner-related operations
type Party struct {
	shared.BaseAggregateRoot
	Code               string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_party_type_code,priority:2"`
	Name               string    `gorm:"type:varchar(200);not null"`
	Kana               string    `gorm:"type:varchar(200)"`
	Type               PartyType `gorm:"type:varchar(20);not null;uniqueIndex:idx_party_type_code,priority:1"`
	PostalCode         string    `gorm:"type:varchar(10)"`
	Address            string    `gorm:"type:text"`
	Phone              string    `gorm:"type:varchar(50);index"`
	Fax                string    `gorm:"type:varchar(50)"`
	Email              string    `gorm:"type:varchar(200);index"`
	ClosingDay         int       `gorm:"not null;default:31"` // 31 means end of month
	PaymentMonthOffset int       `gorm:"not null;default:1"`  // months after closing
	PaymentDay         int       `gorm:"not null;default:31"`
	Notes              string    `gorm:"type:text"`
	IsActive           bool      `gorm:"not null"`
	Contacts           []Contact `gorm:"foreignKey:PartyID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Party) TableName() string {
	return "parties"
}

// Contact is a contact person belonging to a party
type Contact struct {
	shared.BaseEntity
	PartyID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"type:varchar(100);not null"`
	Department string    `gorm:"type:varchar(100)"`
	Title      string    `gorm:"type:varchar(100)"`
	Phone      string    `gorm:"type:varchar(50)"`
	Email      string    `gorm:"type:varchar(200)"`
	IsPrimary  bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Contact) TableName() string {
	return "party_contacts"
}

// NewParty creates a new party with required fields
func NewParty(code, name string, partyType PartyType) (*Party, error) {
	normalized, err := NormalizePartyCode(code)
	if err != nil {
		return nil, err
	}
	if err := validatePartyName(name); err != nil {
		return nil, err
	}
	if !partyType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Party type must be 'customer' or 'supplier'")
	}

	party := &Party{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Code:               normalized,
		Name:               name,
		Type:               partyType,
		ClosingDay:         31,
		PaymentMonthOffset: 1,
		PaymentDay:         31,
		IsActive:           true,
	}

	party.AddDomainEvent(NewPartyCreatedEvent(party))

	return party, nil
}

// Update updates the party's basic information
func (p *Party) Update(name, kana string) error {
	if err := validatePartyName(name); err != nil {
		return err
	}
	if kana != "" && len(kana) > 200 {
		return shared.NewDomainError("INVALID_KANA", "Kana cannot exceed 200 characters")
	}

	p.Name = name
	p.Kana = kana
	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewPartyUpdatedEvent(p))

	return nil
}

// SetContactInfo sets the party's phone, fax and email
func (p *Party) SetContactInfo(phone, fax, email string) error {
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if fax != "" {
		if err := validatePhone(fax); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	p.Phone = phone
	p.Fax = fax
	p.Email = email
	p.Touch()
	p.IncrementVersion()

	return nil
}

// SetAddress sets the party's postal code and address
func (p *Party) SetAddress(postalCode, address string) error {
	if postalCode != "" && !postalCodePattern.MatchString(postalCode) {
		return shared.NewDomainError("INVALID_POSTAL_CODE", "Postal code must be in the form 123-4567 or 1234567")
	}
	if len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}

	p.PostalCode = postalCode
	p.Address = address
	p.Touch()
	p.IncrementVersion()

	return nil
}

// SetPaymentTerms sets closing day and payment schedule.
// Day 31 stands for end of month regardless of its actual length.
func (p *Party) SetPaymentTerms(closingDay, paymentMonthOffset, paymentDay int) error {
	if closingDay < 1 || closingDay > 31 {
		return shared.NewDomainError("INVALID_CLOSING_DAY", "Closing day must be between 1 and 31")
	}
	if paymentMonthOffset < 0 || paymentMonthOffset > 12 {
		return shared.NewDomainError("INVALID_PAYMENT_MONTH", "Payment month offset must be between 0 and 12")
	}
	if paymentDay < 1 || paymentDay > 31 {
		return shared.NewDomainError("INVALID_PAYMENT_DAY", "Payment day must be between 1 and 31")
	}

	p.ClosingDay = closingDay
	p.PaymentMonthOffset = paymentMonthOffset
	p.PaymentDay = paymentDay
	p.Touch()
	p.IncrementVersion()

	return nil
}

// SetNotes sets free-form notes
func (p *Party) SetNotes(notes string) {
	p.Notes = notes
	p.Touch()
	p.IncrementVersion()
}

// Deactivate marks the party as inactive
func (p *Party) Deactivate() error {
	if !p.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Party is already inactive")
	}

	p.IsActive = false
	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewPartyDeactivatedEvent(p))

	return nil
}

// Activate marks the party as active again
func (p *Party) Activate() error {
	if p.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Party is already active")
	}

	p.IsActive = true
	p.Touch()
	p.IncrementVersion()

	return nil
}

// AddContact adds a contact person to the party
func (p *Party) AddContact(name, department, title, phone, email string, isPrimary bool) (*Contact, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return nil, err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	if isPrimary {
		for i := range p.Contacts {
			p.Contacts[i].IsPrimary = false
		}
	}

	contact := Contact{
		BaseEntity: shared.NewBaseEntity(),
		PartyID:    p.ID,
		Name:       name,
		Department: department,
		Title:      title,
		Phone:      phone,
		Email:      email,
		IsPrimary:  isPrimary,
	}
	p.Contacts = append(p.Contacts, contact)
	p.Touch()
	p.IncrementVersion()

	return &p.Contacts[len(p.Contacts)-1], nil
}

// UpdateContact updates an existing contact person
func (p *Party) UpdateContact(contactID uuid.UUID, name, department, title, phone, email string, isPrimary bool) error {
	idx := -1
	for i := range p.Contacts {
		if p.Contacts[i].ID == contactID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.ErrNotFound
	}

	if name == "" {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot be empty")
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	if isPrimary {
		for i := range p.Contacts {
			p.Contacts[i].IsPrimary = false
		}
	}

	c := &p.Contacts[idx]
	c.Name = name
	c.Department = department
	c.Title = title
	c.Phone = phone
	c.Email = email
	c.IsPrimary = isPrimary
	c.Touch()
	p.Touch()
	p.IncrementVersion()

	return nil
}

// RemoveContact removes a contact person from the party
func (p *Party) RemoveContact(contactID uuid.UUID) error {
	for i := range p.Contacts {
		if p.Contacts[i].ID == contactID {
			p.Contacts = append(p.Contacts[:i], p.Contacts[i+1:]...)
			p.Touch()
			p.IncrementVersion()
			return nil
		}
	}
	return shared.ErrNotFound
}

// PrimaryContact returns the primary contact, or nil if none is marked
func (p *Party) PrimaryContact() *Contact {
	for i := range p.Contacts {
		if p.Contacts[i].IsPrimary {
			return &p.Contacts[i]
		}
	}
	return nil
}

// NewPartyReferencedError reports that a party cannot be deleted while
// documents or purchase orders still reference it
func NewPartyReferencedError(partyType PartyType, count int64) *shared.DomainError {
	noun := "documents"
	if partyType == PartyTypeSupplier {
		noun = "purchase orders"
	}
	return shared.NewDomainError("PARTY_REFERENCED",
		fmt.Sprintf("Cannot delete party: %d %s still reference it", count, noun))
}

var postalCodePattern = regexp.MustCompile(`^\d{3}-?\d{4}$`)

// NormalizePartyCode converts full-width characters to half-width,
// upper-cases the result and validates the allowed character set.
func NormalizePartyCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(width.Narrow.String(code)))
	if normalized == "" {
		return "", shared.NewDomainError("INVALID_CODE", "Party code cannot be empty")
	}
	if len(normalized) > 50 {
		return "", shared.NewDomainError("INVALID_CODE", "Party code cannot exceed 50 characters")
	}
	for _, r := range normalized {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return "", shared.NewDomainError("INVALID_CODE", "Party code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return normalized, nil
}

// Validation functions

func validatePartyName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Party name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Party name cannot exceed 200 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
