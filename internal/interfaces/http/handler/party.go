package handler

import (
	"io"

	partnerapp "github.com/backoffice/backend/internal/application/partner"
	"github.com/backoffice/backend/internal/domain/partner"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxImportFileSize caps uploaded CSV files at 5 MiB
const maxImportFileSize = 5 << 20

// PartyHandler handles customer and supplier API endpoints
type PartyHandler struct {
	BaseHandler
	partyService  *partnerapp.PartyService
	importService *partnerapp.PartyImportService
}

// NewPartyHandler creates a new PartyHandler
func NewPartyHandler(partyService *partnerapp.PartyService, importService *partnerapp.PartyImportService) *PartyHandler {
	return &PartyHandler{
		partyService:  partyService,
		importService: importService,
	}
}

// Create godoc
// @ID           createParty
// @Summary      Create a customer or supplier
// @Description  Register a new business partner with optional contact persons
// @Tags         parties
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.CreatePartyRequest true "Party creation request"
// @Success      201 {object} APIResponse[partnerapp.PartyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties [post]
func (h *PartyHandler) Create(c *gin.Context) {
	var req partnerapp.CreatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	party, err := h.partyService.Create(c.Request.Context(), req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, party)
}

// GetByID godoc
// @ID           getPartyById
// @Summary      Get party by ID
// @Description  Retrieve a customer or supplier with its contact persons
// @Tags         parties
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.PartyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/{id} [get]
func (h *PartyHandler) GetByID(c *gin.Context) {
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	party, err := h.partyService.GetByID(c.Request.Context(), partyID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, party)
}

// GetByCode godoc
// @ID           getPartyByCode
// @Summary      Get party by code
// @Description  Retrieve a party by its type and code. Codes are unique per type.
// @Tags         parties
// @Produce      json
// @Param        type path string true "Party type" Enums(customer, supplier)
// @Param        code path string true "Party code"
// @Success      200 {object} APIResponse[partnerapp.PartyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/code/{type}/{code} [get]
func (h *PartyHandler) GetByCode(c *gin.Context) {
	partyType := partner.PartyType(c.Param("type"))
	if !partyType.IsValid() {
		h.BadRequest(c, "Party type must be customer or supplier")
		return
	}

	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Party code is required")
		return
	}

	party, err := h.partyService.GetByCode(c.Request.Context(), partyType, code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, party)
}

// List godoc
// @ID           listParties
// @Summary      List parties
// @Description  Retrieve a paginated list of customers and suppliers with optional filtering
// @Tags         parties
// @Produce      json
// @Param        type query string false "Party type" Enums(customer, supplier)
// @Param        is_active query bool false "Active flag"
// @Param        search query string false "Search term (code, name, kana)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(code)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(asc)
// @Success      200 {object} APIResponse[[]partnerapp.PartyListResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties [get]
func (h *PartyHandler) List(c *gin.Context) {
	var filter partnerapp.PartyListFilter
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

	parties, total, err := h.partyService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, parties, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateParty
// @Summary      Update a party
// @Description  Update a customer or supplier. The code and type are immutable.
// @Tags         parties
// @Accept       json
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Param        request body partnerapp.UpdatePartyRequest true "Party update request"
// @Success      200 {object} APIResponse[partnerapp.PartyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/{id} [put]
func (h *PartyHandler) Update(c *gin.Context) {
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	var req partnerapp.UpdatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	party, err := h.partyService.Update(c.Request.Context(), partyID, req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, party)
}

// Delete godoc
// @ID           deleteParty
// @Summary      Delete a party
// @Description  Delete a party. Parties referenced by documents or orders cannot be deleted; deactivate them instead.
// @Tags         parties
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/{id} [delete]
func (h *PartyHandler) Delete(c *gin.Context) {
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	err = h.partyService.Delete(c.Request.Context(), partyID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Activate godoc
// @ID           activateParty
// @Summary      Activate a party
// @Description  Reactivate a deactivated party
// @Tags         parties
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.PartyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/{id}/activate [post]
func (h *PartyHandler) Activate(c *gin.Context) {
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	party, err := h.partyService.Activate(c.Request.Context(), partyID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, party)
}

// Deactivate godoc
// @ID           deactivateParty
// @Summary      Deactivate a party
// @Description  Deactivate an active party. Deactivated parties keep their history but cannot receive new documents.
// @Tags         parties
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.PartyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/{id}/deactivate [post]
func (h *PartyHandler) Deactivate(c *gin.Context) {
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	party, err := h.partyService.Deactivate(c.Request.Context(), partyID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, party)
}

// ListContacts godoc
// @ID           listPartyContacts
// @Summary      List contact persons
// @Description  List the contact persons of a party
// @Tags         parties
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Success      200 {object} APIResponse[[]partnerapp.ContactResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/{id}/contacts [get]
func (h *PartyHandler) ListContacts(c *gin.Context) {
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	party, err := h.partyService.GetByID(c.Request.Context(), partyID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, party.Contacts)
}

// AddContact godoc
// @ID           addPartyContact
// @Summary      Add a contact person
// @Description  Add a contact person to a party. Marking the contact primary demotes the previous primary.
// @Tags         parties
// @Accept       json
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Param        request body partnerapp.CreateContactRequest true "Contact person"
// @Success      200 {object} APIResponse[partnerapp.PartyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/{id}/contacts [post]
func (h *PartyHandler) AddContact(c *gin.Context) {
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	var req partnerapp.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	party, err := h.partyService.AddContact(c.Request.Context(), partyID, req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, party)
}

// UpdateContact godoc
// @ID           updatePartyContact
// @Summary      Update a contact person
// @Description  Update an existing contact person of a party
// @Tags         parties
// @Accept       json
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Param        contactId path string true "Contact ID" format(uuid)
// @Param        request body partnerapp.UpdateContactRequest true "Contact person"
// @Success      200 {object} APIResponse[partnerapp.PartyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/{id}/contacts/{contactId} [put]
func (h *PartyHandler) UpdateContact(c *gin.Context) {
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	contactID, err := uuid.Parse(c.Param("contactId"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	var req partnerapp.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	party, err := h.partyService.UpdateContact(c.Request.Context(), partyID, contactID, req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, party)
}

// RemoveContact godoc
// @ID           removePartyContact
// @Summary      Remove a contact person
// @Description  Remove a contact person from a party
// @Tags         parties
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Param        contactId path string true "Contact ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.PartyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/{id}/contacts/{contactId} [delete]
func (h *PartyHandler) RemoveContact(c *gin.Context) {
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	contactID, err := uuid.Parse(c.Param("contactId"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	party, err := h.partyService.RemoveContact(c.Request.Context(), partyID, contactID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, party)
}

// ImportCSV godoc
// @ID           importParties
// @Summary      Import parties from CSV
// @Description  Bulk import customers and suppliers from an uploaded CSV file. Rows that fail validation are reported and skipped; valid rows are still imported.
// @Tags         parties
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file (UTF-8, with header row)"
// @Success      200 {object} APIResponse[partnerapp.PartyImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/import [post]
func (h *PartyHandler) ImportCSV(c *gin.Context) {
	data, ok := h.readImportFile(c)
	if !ok {
		return
	}

	result, err := h.importService.ImportCSV(c.Request.Context(), data, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ValidateImportCSV godoc
// @ID           validatePartyImport
// @Summary      Validate a party CSV without importing
// @Description  Dry run for a party CSV upload. Reports row errors, codes that already exist, and a preview of the first rows. No records are created.
// @Tags         parties
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file (UTF-8 or Shift_JIS, with header row)"
// @Success      200 {object} APIResponse[csvimport.ValidationResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /parties/import/validate [post]
func (h *PartyHandler) ValidateImportCSV(c *gin.Context) {
	data, ok := h.readImportFile(c)
	if !ok {
		return
	}

	result, err := h.importService.ValidateCSV(c.Request.Context(), data)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// readImportFile pulls the uploaded CSV out of the multipart form,
// enforcing the size limit. A false return means a response was written.
func (h *PartyHandler) readImportFile(c *gin.Context) ([]byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "CSV file is required")
		return nil, false
	}
	if fileHeader.Size > maxImportFileSize {
		h.BadRequest(c, "File exceeds the 5MB import limit")
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Failed to open uploaded file")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportFileSize+1))
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return nil, false
	}

	return data, true
}
