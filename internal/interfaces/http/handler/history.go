package handler

import (
	auditapp "github.com/backoffice/backend/internal/application/audit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HistoryHandler handles operation history API endpoints
type HistoryHandler struct {
	BaseHandler
	historyService *auditapp.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(historyService *auditapp.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// List godoc
// @ID           listHistory
// @Summary      List operation history
// @Description  Retrieve the append-only audit trail, newest first, with optional filtering
// @Tags         history
// @Produce      json
// @Param        entity_type query string false "Entity type" Enums(party, document, purchase_order, account, journal_entry, user)
// @Param        entity_id query string false "Entity ID" format(uuid)
// @Param        actor_id query string false "Actor user ID" format(uuid)
// @Param        from query string false "Recorded from (RFC 3339)"
// @Param        to query string false "Recorded to (RFC 3339)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(50) maximum(200)
// @Success      200 {object} APIResponse[[]auditapp.OperationRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	var filter auditapp.HistoryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	records, total, err := h.historyService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}

// ListForEntity godoc
// @ID           listEntityHistory
// @Summary      List history for one entity
// @Description  Retrieve the audit trail for a single entity, newest first
// @Tags         history
// @Produce      json
// @Param        entityType path string true "Entity type" Enums(party, document, purchase_order, account, journal_entry, user)
// @Param        entityId path string true "Entity ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(50) maximum(200)
// @Success      200 {object} APIResponse[[]auditapp.OperationRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /history/{entityType}/{entityId} [get]
func (h *HistoryHandler) ListForEntity(c *gin.Context) {
	entityType := c.Param("entityType")
	if entityType == "" {
		h.BadRequest(c, "Entity type is required")
		return
	}

	entityID, err := uuid.Parse(c.Param("entityId"))
	if err != nil {
		h.BadRequest(c, "Invalid entity ID format")
		return
	}

	var filter auditapp.HistoryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	records, total, err := h.historyService.ListForEntity(c.Request.Context(), entityType, entityID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}
