package handler

import (
	accountingapp "github.com/backoffice/backend/internal/application/accounting"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JournalEntryHandler handles journal entry and reporting API endpoints
type JournalEntryHandler struct {
	BaseHandler
	entryService *accountingapp.JournalEntryService
}

// NewJournalEntryHandler creates a new JournalEntryHandler
func NewJournalEntryHandler(entryService *accountingapp.JournalEntryService) *JournalEntryHandler {
	return &JournalEntryHandler{entryService: entryService}
}

// Create godoc
// @ID           createJournalEntry
// @Summary      Post a journal entry
// @Description  Post a balanced journal entry. Total debits must equal total credits and every referenced account must be active.
// @Tags         journal-entries
// @Accept       json
// @Produce      json
// @Param        request body accountingapp.CreateJournalEntryRequest true "Journal entry"
// @Success      201 {object} APIResponse[accountingapp.JournalEntryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /journal-entries [post]
func (h *JournalEntryHandler) Create(c *gin.Context) {
	var req accountingapp.CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entry, err := h.entryService.Create(c.Request.Context(), req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, entry)
}

// GetByID godoc
// @ID           getJournalEntryById
// @Summary      Get journal entry by ID
// @Description  Retrieve a journal entry with its debit and credit lines
// @Tags         journal-entries
// @Produce      json
// @Param        id path string true "Journal entry ID" format(uuid)
// @Success      200 {object} APIResponse[accountingapp.JournalEntryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /journal-entries/{id} [get]
func (h *JournalEntryHandler) GetByID(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid journal entry ID format")
		return
	}

	entry, err := h.entryService.GetByID(c.Request.Context(), entryID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entry)
}

// List godoc
// @ID           listJournalEntries
// @Summary      List journal entries
// @Description  Retrieve a paginated list of journal entries with optional filtering
// @Tags         journal-entries
// @Produce      json
// @Param        account_id query string false "Account ID" format(uuid)
// @Param        date_from query string false "Entry date from (RFC 3339)"
// @Param        date_to query string false "Entry date to (RFC 3339)"
// @Param        search query string false "Search term (description)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]accountingapp.JournalEntryListResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /journal-entries [get]
func (h *JournalEntryHandler) List(c *gin.Context) {
	var filter accountingapp.JournalEntryListFilter
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

	entries, total, err := h.entryService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// Delete godoc
// @ID           deleteJournalEntry
// @Summary      Delete a journal entry
// @Description  Remove a posted journal entry. The deletion itself is recorded in the operation history.
// @Tags         journal-entries
// @Produce      json
// @Param        id path string true "Journal entry ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /journal-entries/{id} [delete]
func (h *JournalEntryHandler) Delete(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid journal entry ID format")
		return
	}

	err = h.entryService.Delete(c.Request.Context(), entryID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// TrialBalance godoc
// @ID           getTrialBalance
// @Summary      Trial balance report
// @Description  Aggregate debit and credit totals per account over the requested period. Results are cached briefly; posting or deleting an entry invalidates the cache.
// @Tags         journal-entries
// @Produce      json
// @Param        from query string true "Period start (RFC 3339)"
// @Param        to query string true "Period end (RFC 3339)"
// @Success      200 {object} APIResponse[accountingapp.TrialBalanceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/trial-balance [get]
func (h *JournalEntryHandler) TrialBalance(c *gin.Context) {
	var req accountingapp.TrialBalanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if req.To.Before(req.From) {
		h.BadRequest(c, "Period end must not be before period start")
		return
	}

	report, err := h.entryService.TrialBalance(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}
