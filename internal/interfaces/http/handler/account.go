package handler

import (
	accountingapp "github.com/backoffice/backend/internal/application/accounting"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler handles chart of accounts API endpoints
type AccountHandler struct {
	BaseHandler
	accountService *accountingapp.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *accountingapp.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// Create godoc
// @ID           createAccount
// @Summary      Create an account
// @Description  Add an account to the chart of accounts. Account codes are unique.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body accountingapp.CreateAccountRequest true "Account creation request"
// @Success      201 {object} APIResponse[accountingapp.AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req accountingapp.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	account, err := h.accountService.Create(c.Request.Context(), req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, account)
}

// GetByID godoc
// @ID           getAccountById
// @Summary      Get account by ID
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} APIResponse[accountingapp.AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /accounts/{id} [get]
func (h *AccountHandler) GetByID(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	account, err := h.accountService.GetByID(c.Request.Context(), accountID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, account)
}

// GetByCode godoc
// @ID           getAccountByCode
// @Summary      Get account by code
// @Tags         accounts
// @Produce      json
// @Param        code path string true "Account code"
// @Success      200 {object} APIResponse[accountingapp.AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /accounts/code/{code} [get]
func (h *AccountHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Account code is required")
		return
	}

	account, err := h.accountService.GetByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, account)
}

// List godoc
// @ID           listAccounts
// @Summary      List accounts
// @Description  Retrieve a paginated list of accounts with optional filtering
// @Tags         accounts
// @Produce      json
// @Param        type query string false "Account type" Enums(ASSET, LIABILITY, EQUITY, REVENUE, EXPENSE)
// @Param        is_active query bool false "Active flag"
// @Param        search query string false "Search term (code, name)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]accountingapp.AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	var filter accountingapp.AccountListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	accounts, total, err := h.accountService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, accounts, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateAccount
// @Summary      Update an account
// @Description  Update the name or description of an account. The code and type are immutable.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        request body accountingapp.UpdateAccountRequest true "Account update request"
// @Success      200 {object} APIResponse[accountingapp.AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req accountingapp.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	account, err := h.accountService.Update(c.Request.Context(), accountID, req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, account)
}

// Activate godoc
// @ID           activateAccount
// @Summary      Activate an account
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} APIResponse[accountingapp.AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /accounts/{id}/activate [post]
func (h *AccountHandler) Activate(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	account, err := h.accountService.Activate(c.Request.Context(), accountID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, account)
}

// Deactivate godoc
// @ID           deactivateAccount
// @Summary      Deactivate an account
// @Description  Deactivate an account. Deactivated accounts cannot receive new journal lines but keep their history.
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} APIResponse[accountingapp.AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /accounts/{id}/deactivate [post]
func (h *AccountHandler) Deactivate(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	account, err := h.accountService.Deactivate(c.Request.Context(), accountID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, account)
}
