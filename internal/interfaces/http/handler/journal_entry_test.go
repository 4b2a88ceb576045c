package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accountingapp "github.com/backoffice/backend/internal/application/accounting"
	"github.com/backoffice/backend/internal/domain/accounting"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAccountRepository is a mock implementation of accounting.AccountRepository
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

// MockJournalEntryRepository is a mock implementation of accounting.JournalEntryRepository
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

func setupJournalEntryRouter(entryRepo *MockJournalEntryRepository, accountRepo *MockAccountRepository, historyRepo *MockHistoryRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	entryService := accountingapp.NewJournalEntryService(entryRepo, accountRepo, historyRepo)
	handler := NewJournalEntryHandler(entryService)

	r := gin.New()
	v1 := r.Group("/api/v1")
	{
		v1.POST("/journal-entries", handler.Create)
		v1.GET("/journal-entries/:id", handler.GetByID)
		v1.GET("/reports/trial-balance", handler.TrialBalance)
	}
	return r
}

func createTestAccount(t *testing.T, code, name string, accountType accounting.AccountType) *accounting.Account {
	t.Helper()
	account, err := accounting.NewAccount(code, name, accountType)
	require.NoError(t, err)
	return account
}

func TestJournalEntryHandler_Create_Balanced(t *testing.T) {
	entryRepo := new(MockJournalEntryRepository)
	accountRepo := new(MockAccountRepository)
	historyRepo := new(MockHistoryRepository)

	cash := createTestAccount(t, "101", "現金", accounting.AccountTypeAsset)
	sales := createTestAccount(t, "400", "売上高", accounting.AccountTypeRevenue)

	accountRepo.On("FindByCode", mock.Anything, "101").Return(cash, nil)
	accountRepo.On("FindByCode", mock.Anything, "400").Return(sales, nil)
	entryRepo.On("NextEntryNumber", mock.Anything, mock.Anything).Return("JE-20240131-0001", nil)
	entryRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	router := setupJournalEntryRouter(entryRepo, accountRepo, historyRepo)

	body, _ := json.Marshal(accountingapp.CreateJournalEntryRequest{
		EntryDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Description: "現金売上",
		Lines: []accountingapp.CreateJournalLineRequest{
			{AccountCode: "101", DebitAmount: decimal.NewFromInt(11000)},
			{AccountCode: "400", CreditAmount: decimal.NewFromInt(11000)},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response["success"].(bool))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "JE-20240131-0001", data["entry_number"])

	entryRepo.AssertExpectations(t)
}

func TestJournalEntryHandler_Create_Unbalanced(t *testing.T) {
	entryRepo := new(MockJournalEntryRepository)
	accountRepo := new(MockAccountRepository)

	cash := createTestAccount(t, "101", "現金", accounting.AccountTypeAsset)
	sales := createTestAccount(t, "400", "売上高", accounting.AccountTypeRevenue)

	accountRepo.On("FindByCode", mock.Anything, "101").Return(cash, nil)
	accountRepo.On("FindByCode", mock.Anything, "400").Return(sales, nil)
	entryRepo.On("NextEntryNumber", mock.Anything, mock.Anything).Return("JE-20240131-0001", nil)

	router := setupJournalEntryRouter(entryRepo, accountRepo, new(MockHistoryRepository))

	body, _ := json.Marshal(accountingapp.CreateJournalEntryRequest{
		EntryDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Description: "現金売上",
		Lines: []accountingapp.CreateJournalLineRequest{
			{AccountCode: "101", DebitAmount: decimal.NewFromInt(11000)},
			{AccountCode: "400", CreditAmount: decimal.NewFromInt(10000)},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	errInfo := response["error"].(map[string]interface{})
	assert.Equal(t, "ERR_UNBALANCED_ENTRY", errInfo["code"])

	entryRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestJournalEntryHandler_Create_DebitAndCreditOnSameLine(t *testing.T) {
	entryRepo := new(MockJournalEntryRepository)
	accountRepo := new(MockAccountRepository)

	cash := createTestAccount(t, "101", "現金", accounting.AccountTypeAsset)
	accountRepo.On("FindByCode", mock.Anything, "101").Return(cash, nil)

	router := setupJournalEntryRouter(entryRepo, accountRepo, new(MockHistoryRepository))

	body, _ := json.Marshal(accountingapp.CreateJournalEntryRequest{
		EntryDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Description: "invalid line",
		Lines: []accountingapp.CreateJournalLineRequest{
			{AccountCode: "101", DebitAmount: decimal.NewFromInt(500), CreditAmount: decimal.NewFromInt(500)},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJournalEntryHandler_TrialBalance_MissingPeriod(t *testing.T) {
	router := setupJournalEntryRouter(new(MockJournalEntryRepository), new(MockAccountRepository), new(MockHistoryRepository))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/trial-balance", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJournalEntryHandler_TrialBalance_Success(t *testing.T) {
	entryRepo := new(MockJournalEntryRepository)

	cash := createTestAccount(t, "101", "現金", accounting.AccountTypeAsset)
	rows := []accounting.TrialBalanceRow{
		{
			AccountID:   cash.ID,
			AccountCode: cash.Code,
			AccountName: cash.Name,
			AccountType: cash.Type,
			DebitTotal:  decimal.NewFromInt(11000),
			CreditTotal: decimal.Zero,
		},
	}
	entryRepo.On("TrialBalance", mock.Anything, mock.Anything, mock.Anything).Return(rows, nil)

	router := setupJournalEntryRouter(entryRepo, new(MockAccountRepository), new(MockHistoryRepository))

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/trial-balance?from=2024-01-01T00:00:00Z&to=2024-01-31T00:00:00Z", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response["success"].(bool))
	data := response["data"].(map[string]interface{})
	reportRows := data["rows"].([]interface{})
	require.Len(t, reportRows, 1)
	assert.Equal(t, "101", reportRows[0].(map[string]interface{})["account_code"])
}
