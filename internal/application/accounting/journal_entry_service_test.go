package accounting

import (
	"context"
	"testing"
	"time"

	"github.com/backoffice/backend/internal/domain/accounting"
	"github.com/backoffice/backend/internal/domain/audit"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByCode(ctx context.Context, code string) (*accounting.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]accounting.Account, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.Account, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByType(ctx context.Context, accountType accounting.AccountType, filter shared.Filter) ([]accounting.Account, error) {
	args := m.Called(ctx, accountType, filter)
	return args.Get(0).([]accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *accounting.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockJournalEntryRepository is a mock implementation of JournalEntryRepository
type MockJournalEntryRepository struct {
	mock.Mock
}

func (m *MockJournalEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.JournalEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.JournalEntry), args.Error(1)
}

func (m *MockJournalEntryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.JournalEntry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]accounting.JournalEntry), args.Error(1)
}

func (m *MockJournalEntryRepository) FindByDateRange(ctx context.Context, from, to time.Time, filter shared.Filter) ([]accounting.JournalEntry, error) {
	args := m.Called(ctx, from, to, filter)
	return args.Get(0).([]accounting.JournalEntry), args.Error(1)
}

func (m *MockJournalEntryRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]accounting.JournalEntry, error) {
	args := m.Called(ctx, accountID, filter)
	return args.Get(0).([]accounting.JournalEntry), args.Error(1)
}

func (m *MockJournalEntryRepository) Save(ctx context.Context, entry *accounting.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJournalEntryRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalEntryRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalEntryRepository) NextEntryNumber(ctx context.Context, entryDate time.Time) (string, error) {
	args := m.Called(ctx, entryDate)
	return args.String(0), args.Error(1)
}

func (m *MockJournalEntryRepository) TrialBalance(ctx context.Context, from, to time.Time) ([]accounting.TrialBalanceRow, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]accounting.TrialBalanceRow), args.Error(1)
}

// MockOperationHistoryRepository is a mock implementation of OperationHistoryRepository
type MockOperationHistoryRepository struct {
	mock.Mock
}

func (m *MockOperationHistoryRepository) Append(ctx context.Context, record *audit.OperationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockOperationHistoryRepository) FindAll(ctx context.Context, filter audit.HistoryFilter, page shared.Filter) ([]audit.OperationRecord, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]audit.OperationRecord), args.Error(1)
}

func (m *MockOperationHistoryRepository) Count(ctx context.Context, filter audit.HistoryFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// =============================================================================
// Helpers
// =============================================================================

func newAccount(t *testing.T, code, name string, accountType accounting.AccountType) *accounting.Account {
	t.Helper()
	account, err := accounting.NewAccount(code, name, accountType)
	assert.NoError(t, err)
	return account
}

// =============================================================================
// Tests
// =============================================================================

func TestJournalEntryService_Create(t *testing.T) {
	entryDate := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("posts a balanced entry", func(t *testing.T) {
		entryRepo := new(MockJournalEntryRepository)
		accountRepo := new(MockAccountRepository)
		historyRepo := new(MockOperationHistoryRepository)
		service := NewJournalEntryService(entryRepo, accountRepo, historyRepo)

		cash := newAccount(t, "1000", "現金", accounting.AccountTypeAsset)
		sales := newAccount(t, "4000", "売上高", accounting.AccountTypeRevenue)
		accountRepo.On("FindByCode", mock.Anything, "1000").Return(cash, nil)
		accountRepo.On("FindByCode", mock.Anything, "4000").Return(sales, nil)
		entryRepo.On("NextEntryNumber", mock.Anything, entryDate).Return("JE-20240131-0002", nil)
		entryRepo.On("Save", mock.Anything, mock.AnythingOfType("*accounting.JournalEntry")).Return(nil)
		historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

		resp, err := service.Create(context.Background(), CreateJournalEntryRequest{
			EntryDate:   entryDate,
			Description: "現金売上",
			Lines: []CreateJournalLineRequest{
				{AccountCode: "1000", DebitAmount: decimal.NewFromInt(30140)},
				{AccountCode: "4000", CreditAmount: decimal.NewFromInt(30140)},
			},
		}, audit.Actor{})

		assert.NoError(t, err)
		assert.Equal(t, "JE-20240131-0002", resp.EntryNumber)
		assert.True(t, resp.DebitTotal.Equal(decimal.NewFromInt(30140)))
		assert.True(t, resp.CreditTotal.Equal(decimal.NewFromInt(30140)))
		assert.Len(t, resp.Lines, 2)
		assert.Equal(t, accounting.EntrySideDebit, resp.Lines[0].Side)
		assert.Equal(t, accounting.EntrySideCredit, resp.Lines[1].Side)
		historyRepo.AssertNumberOfCalls(t, "Append", 1)
	})

	t.Run("rejects an unbalanced entry naming both totals", func(t *testing.T) {
		entryRepo := new(MockJournalEntryRepository)
		accountRepo := new(MockAccountRepository)
		service := NewJournalEntryService(entryRepo, accountRepo, new(MockOperationHistoryRepository))

		cash := newAccount(t, "1000", "現金", accounting.AccountTypeAsset)
		sales := newAccount(t, "4000", "売上高", accounting.AccountTypeRevenue)
		accountRepo.On("FindByCode", mock.Anything, "1000").Return(cash, nil)
		accountRepo.On("FindByCode", mock.Anything, "4000").Return(sales, nil)
		entryRepo.On("NextEntryNumber", mock.Anything, entryDate).Return("JE-20240131-0001", nil)

		_, err := service.Create(context.Background(), CreateJournalEntryRequest{
			EntryDate:   entryDate,
			Description: "不均衡",
			Lines: []CreateJournalLineRequest{
				{AccountCode: "1000", DebitAmount: decimal.NewFromInt(1000)},
				{AccountCode: "4000", CreditAmount: decimal.NewFromInt(900)},
			},
		}, audit.Actor{})

		assert.Error(t, err)
		var domainErr *shared.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "UNBALANCED_JOURNAL_ENTRY", domainErr.Code)
		assert.Contains(t, domainErr.Message, "1000")
		assert.Contains(t, domainErr.Message, "900")
		entryRepo.AssertNotCalled(t, "Save")
	})

	t.Run("rejects a line carrying both debit and credit", func(t *testing.T) {
		entryRepo := new(MockJournalEntryRepository)
		accountRepo := new(MockAccountRepository)
		service := NewJournalEntryService(entryRepo, accountRepo, new(MockOperationHistoryRepository))

		cash := newAccount(t, "1000", "現金", accounting.AccountTypeAsset)
		accountRepo.On("FindByCode", mock.Anything, "1000").Return(cash, nil)

		_, err := service.Create(context.Background(), CreateJournalEntryRequest{
			EntryDate:   entryDate,
			Description: "両建て",
			Lines: []CreateJournalLineRequest{
				{AccountCode: "1000", DebitAmount: decimal.NewFromInt(100), CreditAmount: decimal.NewFromInt(100)},
			},
		}, audit.Actor{})

		assert.Error(t, err)
		entryRepo.AssertNotCalled(t, "NextEntryNumber")
	})

	t.Run("rejects a line on an inactive account", func(t *testing.T) {
		entryRepo := new(MockJournalEntryRepository)
		accountRepo := new(MockAccountRepository)
		service := NewJournalEntryService(entryRepo, accountRepo, new(MockOperationHistoryRepository))

		old := newAccount(t, "9999", "旧勘定", accounting.AccountTypeExpense)
		assert.NoError(t, old.Deactivate())
		accountRepo.On("FindByCode", mock.Anything, "9999").Return(old, nil)

		_, err := service.Create(context.Background(), CreateJournalEntryRequest{
			EntryDate:   entryDate,
			Description: "旧勘定への仕訳",
			Lines: []CreateJournalLineRequest{
				{AccountCode: "9999", DebitAmount: decimal.NewFromInt(100)},
			},
		}, audit.Actor{})

		assert.Error(t, err)
		var domainErr *shared.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INACTIVE_ACCOUNT", domainErr.Code)
	})

	t.Run("unknown account code fails the post", func(t *testing.T) {
		entryRepo := new(MockJournalEntryRepository)
		accountRepo := new(MockAccountRepository)
		service := NewJournalEntryService(entryRepo, accountRepo, new(MockOperationHistoryRepository))

		accountRepo.On("FindByCode", mock.Anything, "8888").Return(nil, shared.ErrNotFound)

		_, err := service.Create(context.Background(), CreateJournalEntryRequest{
			EntryDate:   entryDate,
			Description: "未知の勘定",
			Lines: []CreateJournalLineRequest{
				{AccountCode: "8888", DebitAmount: decimal.NewFromInt(100)},
			},
		}, audit.Actor{})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestJournalEntryService_TrialBalance(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("builds a balanced report", func(t *testing.T) {
		entryRepo := new(MockJournalEntryRepository)
		service := NewJournalEntryService(entryRepo, new(MockAccountRepository), new(MockOperationHistoryRepository))

		rows := []accounting.TrialBalanceRow{
			{AccountCode: "1000", AccountName: "現金", AccountType: accounting.AccountTypeAsset,
				DebitTotal: decimal.NewFromInt(30140), CreditTotal: decimal.Zero},
			{AccountCode: "4000", AccountName: "売上高", AccountType: accounting.AccountTypeRevenue,
				DebitTotal: decimal.Zero, CreditTotal: decimal.NewFromInt(30140)},
		}
		entryRepo.On("TrialBalance", mock.Anything, from, to).Return(rows, nil)

		resp, err := service.TrialBalance(context.Background(), TrialBalanceRequest{From: from, To: to})

		assert.NoError(t, err)
		assert.True(t, resp.IsBalanced)
		assert.Len(t, resp.Rows, 2)
		assert.True(t, resp.Rows[0].Balance.Equal(decimal.NewFromInt(30140)))
		assert.True(t, resp.Rows[1].Balance.Equal(decimal.NewFromInt(30140)))
	})

	t.Run("rejects an inverted period", func(t *testing.T) {
		entryRepo := new(MockJournalEntryRepository)
		service := NewJournalEntryService(entryRepo, new(MockAccountRepository), new(MockOperationHistoryRepository))

		_, err := service.TrialBalance(context.Background(), TrialBalanceRequest{From: to, To: from})

		assert.Error(t, err)
		entryRepo.AssertNotCalled(t, "TrialBalance")
	})

	t.Run("serves repeated reports from the cache", func(t *testing.T) {
		entryRepo := new(MockJournalEntryRepository)
		service := NewJournalEntryService(entryRepo, new(MockAccountRepository), new(MockOperationHistoryRepository))

		reportCache := cache.NewInMemoryReportCache()
		defer reportCache.Close()
		service.SetReportCache(reportCache)

		rows := []accounting.TrialBalanceRow{
			{AccountCode: "1000", AccountName: "現金", AccountType: accounting.AccountTypeAsset,
				DebitTotal: decimal.NewFromInt(500), CreditTotal: decimal.Zero},
			{AccountCode: "4000", AccountName: "売上高", AccountType: accounting.AccountTypeRevenue,
				DebitTotal: decimal.Zero, CreditTotal: decimal.NewFromInt(500)},
		}
		entryRepo.On("TrialBalance", mock.Anything, from, to).Return(rows, nil)

		first, err := service.TrialBalance(context.Background(), TrialBalanceRequest{From: from, To: to})
		assert.NoError(t, err)

		second, err := service.TrialBalance(context.Background(), TrialBalanceRequest{From: from, To: to})
		assert.NoError(t, err)

		entryRepo.AssertNumberOfCalls(t, "TrialBalance", 1)
		assert.True(t, second.IsBalanced)
		assert.Len(t, second.Rows, len(first.Rows))
		assert.True(t, second.Rows[0].DebitTotal.Equal(first.Rows[0].DebitTotal))
	})

	t.Run("deleting an entry drops cached reports", func(t *testing.T) {
		entryRepo := new(MockJournalEntryRepository)
		historyRepo := new(MockOperationHistoryRepository)
		service := NewJournalEntryService(entryRepo, new(MockAccountRepository), historyRepo)

		reportCache := cache.NewInMemoryReportCache()
		defer reportCache.Close()
		service.SetReportCache(reportCache)

		entryRepo.On("TrialBalance", mock.Anything, from, to).Return([]accounting.TrialBalanceRow{}, nil)

		_, err := service.TrialBalance(context.Background(), TrialBalanceRequest{From: from, To: to})
		assert.NoError(t, err)

		cash := newAccount(t, "1000", "現金", accounting.AccountTypeAsset)
		sales := newAccount(t, "4000", "売上高", accounting.AccountTypeRevenue)
		debit, err := accounting.NewDebitLine(uuid.Nil, cash, decimal.NewFromInt(100), "")
		assert.NoError(t, err)
		credit, err := accounting.NewCreditLine(uuid.Nil, sales, decimal.NewFromInt(100), "")
		assert.NoError(t, err)
		entry, err := accounting.NewJournalEntry("JE-20240110-0001", from, "売上", []accounting.JournalLine{*debit, *credit})
		assert.NoError(t, err)

		entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
		entryRepo.On("Delete", mock.Anything, entry.ID).Return(nil)
		historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

		assert.NoError(t, service.Delete(context.Background(), entry.ID, audit.Actor{}))

		_, err = service.TrialBalance(context.Background(), TrialBalanceRequest{From: from, To: to})
		assert.NoError(t, err)
		entryRepo.AssertNumberOfCalls(t, "TrialBalance", 2)
	})
}

func TestAccountService_Create(t *testing.T) {
	t.Run("creates an account", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		historyRepo := new(MockOperationHistoryRepository)
		service := NewAccountService(accountRepo, historyRepo)

		accountRepo.On("ExistsByCode", mock.Anything, "1000").Return(false, nil)
		accountRepo.On("Save", mock.Anything, mock.AnythingOfType("*accounting.Account")).Return(nil)
		historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

		resp, err := service.Create(context.Background(), CreateAccountRequest{
			Code: "1000",
			Name: "現金",
			Type: "ASSET",
		}, audit.Actor{})

		assert.NoError(t, err)
		assert.Equal(t, "1000", resp.Code)
		assert.Equal(t, accounting.EntrySideDebit, resp.NormalBalance)
	})

	t.Run("rejects a duplicate code", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		service := NewAccountService(accountRepo, new(MockOperationHistoryRepository))

		accountRepo.On("ExistsByCode", mock.Anything, "1000").Return(true, nil)

		_, err := service.Create(context.Background(), CreateAccountRequest{
			Code: "1000",
			Name: "現金",
			Type: "ASSET",
		}, audit.Actor{})

		assert.Error(t, err)
		accountRepo.AssertNotCalled(t, "Save")
	})

	t.Run("rejects a parent of a different type", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		service := NewAccountService(accountRepo, new(MockOperationHistoryRepository))

		parent := newAccount(t, "4000", "売上高", accounting.AccountTypeRevenue)
		accountRepo.On("ExistsByCode", mock.Anything, "1010").Return(false, nil)
		accountRepo.On("FindByID", mock.Anything, parent.ID).Return(parent, nil)

		_, err := service.Create(context.Background(), CreateAccountRequest{
			Code:     "1010",
			Name:     "小口現金",
			Type:     "ASSET",
			ParentID: &parent.ID,
		}, audit.Actor{})

		assert.Error(t, err)
		var domainErr *shared.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PARENT", domainErr.Code)
	})
}
