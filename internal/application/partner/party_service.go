package partner

import (
	"context"
	"fmt"

	"github.com/backoffice/backend/internal/domain/audit"
	"github.com/backoffice/backend/internal/domain/partner"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const entityTypeParty = "party"

// PartyService handles party-related application logic
type PartyService struct {
	partyRepo      partner.PartyRepository
	historyRepo    audit.OperationHistoryRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPartyService creates a new party service
func NewPartyService(partyRepo partner.PartyRepository, historyRepo audit.OperationHistoryRepository) *PartyService {
	return &PartyService{
		partyRepo:   partyRepo,
		historyRepo: historyRepo,
		logger:      zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PartyService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for non-fatal failures
func (s *PartyService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// Create creates a new party
func (s *PartyService) Create(ctx context.Context, req CreatePartyRequest, actor audit.Actor) (*PartyResponse, error) {
	partyType := partner.PartyType(req.Type)
	if !partyType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PARTY_TYPE", "Party type must be customer or supplier")
	}

	code, err := partner.NormalizePartyCode(req.Code)
	if err != nil {
		return nil, err
	}

	exists, err := s.partyRepo.ExistsByCode(ctx, partyType, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("%s with code %s already exists", partyType, code))
	}

	party, err := partner.NewParty(code, req.Name, partyType)
	if err != nil {
		return nil, err
	}

	if req.Kana != "" {
		if err := party.Update(req.Name, req.Kana); err != nil {
			return nil, err
		}
	}
	if req.Phone != "" || req.Fax != "" || req.Email != "" {
		if err := party.SetContactInfo(req.Phone, req.Fax, req.Email); err != nil {
			return nil, err
		}
	}
	if req.PostalCode != "" || req.Address != "" {
		if err := party.SetAddress(req.PostalCode, req.Address); err != nil {
			return nil, err
		}
	}
	if req.ClosingDay != nil || req.PaymentMonthOffset != nil || req.PaymentDay != nil {
		closingDay := party.ClosingDay
		monthOffset := party.PaymentMonthOffset
		paymentDay := party.PaymentDay
		if req.ClosingDay != nil {
			closingDay = *req.ClosingDay
		}
		if req.PaymentMonthOffset != nil {
			monthOffset = *req.PaymentMonthOffset
		}
		if req.PaymentDay != nil {
			paymentDay = *req.PaymentDay
		}
		if err := party.SetPaymentTerms(closingDay, monthOffset, paymentDay); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		party.SetNotes(req.Notes)
	}
	for _, c := range req.Contacts {
		if _, err := party.AddContact(c.Name, c.Department, c.Title, c.Phone, c.Email, c.IsPrimary); err != nil {
			return nil, err
		}
	}

	if err := s.partyRepo.Save(ctx, party); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, party.ID, audit.OperationActionCreated,
		fmt.Sprintf("%s %s (%s) created", party.Type, party.Code, party.Name), actor)
	s.publishEvents(ctx, party)

	response := ToPartyResponse(party)
	return &response, nil
}

// GetByID retrieves a party by ID
func (s *PartyService) GetByID(ctx context.Context, partyID uuid.UUID) (*PartyResponse, error) {
	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		return nil, err
	}
	response := ToPartyResponse(party)
	return &response, nil
}

// GetByCode retrieves a party by type and code
func (s *PartyService) GetByCode(ctx context.Context, partyType partner.PartyType, code string) (*PartyResponse, error) {
	normalized, err := partner.NormalizePartyCode(code)
	if err != nil {
		return nil, err
	}
	party, err := s.partyRepo.FindByCode(ctx, partyType, normalized)
	if err != nil {
		return nil, err
	}
	response := ToPartyResponse(party)
	return &response, nil
}

// List retrieves parties matching the filter
func (s *PartyService) List(ctx context.Context, filter PartyListFilter) ([]PartyListResponse, int64, error) {
	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Type != nil {
		domainFilter.Filters["type"] = string(*filter.Type)
	}
	if filter.IsActive != nil {
		domainFilter.Filters["is_active"] = *filter.IsActive
	}

	parties, err := s.partyRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.partyRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToPartyListResponses(parties), total, nil
}

// Update updates a party's basic attributes
func (s *PartyService) Update(ctx context.Context, partyID uuid.UUID, req UpdatePartyRequest, actor audit.Actor) (*PartyResponse, error) {
	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Kana != nil {
		name := party.Name
		kana := party.Kana
		if req.Name != nil {
			name = *req.Name
		}
		if req.Kana != nil {
			kana = *req.Kana
		}
		if err := party.Update(name, kana); err != nil {
			return nil, err
		}
	}
	if req.Phone != nil || req.Fax != nil || req.Email != nil {
		phone := party.Phone
		fax := party.Fax
		email := party.Email
		if req.Phone != nil {
			phone = *req.Phone
		}
		if req.Fax != nil {
			fax = *req.Fax
		}
		if req.Email != nil {
			email = *req.Email
		}
		if err := party.SetContactInfo(phone, fax, email); err != nil {
			return nil, err
		}
	}
	if req.PostalCode != nil || req.Address != nil {
		postalCode := party.PostalCode
		address := party.Address
		if req.PostalCode != nil {
			postalCode = *req.PostalCode
		}
		if req.Address != nil {
			address = *req.Address
		}
		if err := party.SetAddress(postalCode, address); err != nil {
			return nil, err
		}
	}
	if req.ClosingDay != nil || req.PaymentMonthOffset != nil || req.PaymentDay != nil {
		closingDay := party.ClosingDay
		monthOffset := party.PaymentMonthOffset
		paymentDay := party.PaymentDay
		if req.ClosingDay != nil {
			closingDay = *req.ClosingDay
		}
		if req.PaymentMonthOffset != nil {
			monthOffset = *req.PaymentMonthOffset
		}
		if req.PaymentDay != nil {
			paymentDay = *req.PaymentDay
		}
		if err := party.SetPaymentTerms(closingDay, monthOffset, paymentDay); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		party.SetNotes(*req.Notes)
	}

	if err := s.partyRepo.Save(ctx, party); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, party.ID, audit.OperationActionUpdated,
		fmt.Sprintf("%s %s updated", party.Type, party.Code), actor)
	s.publishEvents(ctx, party)

	response := ToPartyResponse(party)
	return &response, nil
}

// Deactivate deactivates a party
func (s *PartyService) Deactivate(ctx context.Context, partyID uuid.UUID, actor audit.Actor) (*PartyResponse, error) {
	return s.setActive(ctx, partyID, false, actor)
}

// Activate reactivates a party
func (s *PartyService) Activate(ctx context.Context, partyID uuid.UUID, actor audit.Actor) (*PartyResponse, error) {
	return s.setActive(ctx, partyID, true, actor)
}

func (s *PartyService) setActive(ctx context.Context, partyID uuid.UUID, active bool, actor audit.Actor) (*PartyResponse, error) {
	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		return nil, err
	}

	if active {
		err = party.Activate()
	} else {
		err = party.Deactivate()
	}
	if err != nil {
		return nil, err
	}

	if err := s.partyRepo.Save(ctx, party); err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("%s %s deactivated", party.Type, party.Code)
	if active {
		detail = fmt.Sprintf("%s %s activated", party.Type, party.Code)
	}
	s.recordHistory(ctx, party.ID, audit.OperationActionUpdated, detail, actor)
	s.publishEvents(ctx, party)

	response := ToPartyResponse(party)
	return &response, nil
}

// Delete removes a party. The delete is refused when documents or
// purchase orders still reference the party.
func (s *PartyService) Delete(ctx context.Context, partyID uuid.UUID, actor audit.Actor) error {
	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		return err
	}

	count, err := s.partyRepo.DeleteGuarded(ctx, partyID, party.Type)
	if err != nil {
		return err
	}
	if count > 0 {
		return partner.NewPartyReferencedError(party.Type, count)
	}

	s.recordHistory(ctx, party.ID, audit.OperationActionDeleted,
		fmt.Sprintf("%s %s (%s) deleted", party.Type, party.Code, party.Name), actor)
	return nil
}

// AddContact adds a contact person to a party
func (s *PartyService) AddContact(ctx context.Context, partyID uuid.UUID, req CreateContactRequest, actor audit.Actor) (*PartyResponse, error) {
	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		return nil, err
	}

	if _, err := party.AddContact(req.Name, req.Department, req.Title, req.Phone, req.Email, req.IsPrimary); err != nil {
		return nil, err
	}

	if err := s.partyRepo.Save(ctx, party); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, party.ID, audit.OperationActionUpdated,
		fmt.Sprintf("contact %s added to %s %s", req.Name, party.Type, party.Code), actor)

	response := ToPartyResponse(party)
	return &response, nil
}

// UpdateContact updates a contact person
func (s *PartyService) UpdateContact(ctx context.Context, partyID, contactID uuid.UUID, req UpdateContactRequest, actor audit.Actor) (*PartyResponse, error) {
	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		return nil, err
	}

	if err := party.UpdateContact(contactID, req.Name, req.Department, req.Title, req.Phone, req.Email, req.IsPrimary); err != nil {
		return nil, err
	}

	if err := s.partyRepo.Save(ctx, party); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, party.ID, audit.OperationActionUpdated,
		fmt.Sprintf("contact %s updated on %s %s", req.Name, party.Type, party.Code), actor)

	response := ToPartyResponse(party)
	return &response, nil
}

// RemoveContact removes a contact person from a party
func (s *PartyService) RemoveContact(ctx context.Context, partyID, contactID uuid.UUID, actor audit.Actor) (*PartyResponse, error) {
	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		return nil, err
	}

	if err := party.RemoveContact(contactID); err != nil {
		return nil, err
	}

	if err := s.partyRepo.Save(ctx, party); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, party.ID, audit.OperationActionUpdated,
		fmt.Sprintf("contact removed from %s %s", party.Type, party.Code), actor)

	response := ToPartyResponse(party)
	return &response, nil
}

// recordHistory appends an operation history record. The business change is
// already persisted at this point, so a failed append is logged and swallowed.
func (s *PartyService) recordHistory(ctx context.Context, partyID uuid.UUID, action audit.OperationAction, detail string, actor audit.Actor) {
	if s.historyRepo == nil {
		return
	}
	record, err := audit.NewOperationRecord(entityTypeParty, partyID, action, detail)
	if err == nil {
		err = s.historyRepo.Append(ctx, record.Attribute(actor))
	}
	if err != nil {
		s.logger.Warn("Failed to record operation history",
			zap.String("entity_type", entityTypeParty),
			zap.String("entity_id", partyID.String()),
			zap.Error(err))
	}
}

func (s *PartyService) publishEvents(ctx context.Context, party *partner.Party) {
	if s.eventPublisher == nil {
		return
	}
	events := party.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	party.ClearDomainEvents()
}
