package accounting

import (
	"context"
	"fmt"

	"github.com/backoffice/backend/internal/domain/accounting"
	"github.com/backoffice/backend/internal/domain/audit"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const entityTypeAccount = "account"

// AccountService handles chart of accounts application logic
type AccountService struct {
	accountRepo accounting.AccountRepository
	historyRepo audit.OperationHistoryRepository
	logger      *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(accountRepo accounting.AccountRepository, historyRepo audit.OperationHistoryRepository) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		historyRepo: historyRepo,
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger used for non-fatal failures
func (s *AccountService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// Create creates a new account
func (s *AccountService) Create(ctx context.Context, req CreateAccountRequest, actor audit.Actor) (*AccountResponse, error) {
	exists, err := s.accountRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Account with code %s already exists", req.Code))
	}

	account, err := accounting.NewAccount(req.Code, req.Name, accounting.AccountType(req.Type))
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.accountRepo.FindByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.Type != account.Type {
			return nil, shared.NewDomainError("INVALID_PARENT", "Parent account must be of the same type")
		}
		if err := account.SetParent(req.ParentID); err != nil {
			return nil, err
		}
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, account.ID, audit.OperationActionCreated,
		fmt.Sprintf("account %s %s created", account.Code, account.Name), actor)

	response := ToAccountResponse(account)
	return &response, nil
}

// GetByID retrieves an account by ID
func (s *AccountService) GetByID(ctx context.Context, accountID uuid.UUID) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	response := ToAccountResponse(account)
	return &response, nil
}

// GetByCode retrieves an account by its code
func (s *AccountService) GetByCode(ctx context.Context, code string) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	response := ToAccountResponse(account)
	return &response, nil
}

// List retrieves accounts matching the filter
func (s *AccountService) List(ctx context.Context, filter AccountListFilter) ([]AccountResponse, int64, error) {
	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "code"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
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

	accounts, err := s.accountRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.accountRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToAccountResponses(accounts), total, nil
}

// Update updates an account's name or parent
func (s *AccountService) Update(ctx context.Context, accountID uuid.UUID, req UpdateAccountRequest, actor audit.Actor) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := account.Update(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.ParentID != nil {
		parent, err := s.accountRepo.FindByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.Type != account.Type {
			return nil, shared.NewDomainError("INVALID_PARENT", "Parent account must be of the same type")
		}
		if err := account.SetParent(req.ParentID); err != nil {
			return nil, err
		}
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, account.ID, audit.OperationActionUpdated,
		fmt.Sprintf("account %s updated", account.Code), actor)

	response := ToAccountResponse(account)
	return &response, nil
}

// Deactivate deactivates an account. Accounts with posted journal
// lines stay in place so history remains intact.
func (s *AccountService) Deactivate(ctx context.Context, accountID uuid.UUID, actor audit.Actor) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := account.Deactivate(); err != nil {
		return nil, err
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, account.ID, audit.OperationActionUpdated,
		fmt.Sprintf("account %s deactivated", account.Code), actor)

	response := ToAccountResponse(account)
	return &response, nil
}

// Activate reactivates an account
func (s *AccountService) Activate(ctx context.Context, accountID uuid.UUID, actor audit.Actor) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := account.Activate(); err != nil {
		return nil, err
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, account.ID, audit.OperationActionUpdated,
		fmt.Sprintf("account %s activated", account.Code), actor)

	response := ToAccountResponse(account)
	return &response, nil
}

// recordHistory appends an operation history record. The business change is
// already persisted at this point, so a failed append is logged and swallowed.
func (s *AccountService) recordHistory(ctx context.Context, accountID uuid.UUID, action audit.OperationAction, detail string, actor audit.Actor) {
	if s.historyRepo == nil {
		return
	}
	record, err := audit.NewOperationRecord(entityTypeAccount, accountID, action, detail)
	if err == nil {
		err = s.historyRepo.Append(ctx, record.Attribute(actor))
	}
	if err != nil {
		s.logger.Warn("Failed to record operation history",
			zap.String("entity_type", entityTypeAccount),
			zap.String("entity_id", accountID.String()),
			zap.Error(err))
	}
}
