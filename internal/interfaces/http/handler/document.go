package handler

import (
	"fmt"
	"net/http"

	tradeapp "github.com/backoffice/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles sales document API endpoints (quotes, invoices, receipts)
type DocumentHandler struct {
	BaseHandler
	documentService *tradeapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *tradeapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Create godoc
// @ID           createDocument
// @Summary      Create a sales document
// @Description  Create a quote, invoice, or receipt in draft status. Line items may be supplied inline; totals are computed server side.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateDocumentRequest true "Document creation request"
// @Success      201 {object} APIResponse[tradeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	var req tradeapp.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	document, err := h.documentService.Create(c.Request.Context(), req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, document)
}

// GetByID godoc
// @ID           getDocumentById
// @Summary      Get document by ID
// @Description  Retrieve a sales document with its line items and totals
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	document, err := h.documentService.GetByID(c.Request.Context(), documentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, document)
}

// GetByNumber godoc
// @ID           getDocumentByNumber
// @Summary      Get document by number
// @Description  Retrieve a sales document by its assigned document number
// @Tags         documents
// @Produce      json
// @Param        number path string true "Document number"
// @Success      200 {object} APIResponse[tradeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/number/{number} [get]
func (h *DocumentHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Document number is required")
		return
	}

	document, err := h.documentService.GetByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, document)
}

// List godoc
// @ID           listDocuments
// @Summary      List documents
// @Description  Retrieve a paginated list of sales documents with optional filtering
// @Tags         documents
// @Produce      json
// @Param        type query string false "Document type" Enums(quote, invoice, receipt)
// @Param        status query string false "Document status" Enums(draft, issued, paid, cancelled)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        date_from query string false "Issue date from (RFC 3339)"
// @Param        date_to query string false "Issue date to (RFC 3339)"
// @Param        search query string false "Search term (number, subject)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]tradeapp.DocumentListResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var filter tradeapp.DocumentListFilter
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

	documents, total, err := h.documentService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, documents, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateDocument
// @Summary      Update a document
// @Description  Update header fields of a draft document. Issued documents are read only.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Param        request body tradeapp.UpdateDocumentRequest true "Document update request"
// @Success      200 {object} APIResponse[tradeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	var req tradeapp.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	document, err := h.documentService.Update(c.Request.Context(), documentID, req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, document)
}

// AddItem godoc
// @ID           addDocumentItem
// @Summary      Add a line item
// @Description  Append a line item to a draft document and recompute totals
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Param        request body tradeapp.CreateItemRequest true "Line item"
// @Success      200 {object} APIResponse[tradeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/items [post]
func (h *DocumentHandler) AddItem(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	var req tradeapp.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	document, err := h.documentService.AddItem(c.Request.Context(), documentID, req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, document)
}

// UpdateItem godoc
// @ID           updateDocumentItem
// @Summary      Update a line item
// @Description  Update a line item on a draft document and recompute totals
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Param        itemId path string true "Item ID" format(uuid)
// @Param        request body tradeapp.UpdateItemRequest true "Line item"
// @Success      200 {object} APIResponse[tradeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/items/{itemId} [put]
func (h *DocumentHandler) UpdateItem(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req tradeapp.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	document, err := h.documentService.UpdateItem(c.Request.Context(), documentID, itemID, req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, document)
}

// RemoveItem godoc
// @ID           removeDocumentItem
// @Summary      Remove a line item
// @Description  Remove a line item from a draft document and recompute totals
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Param        itemId path string true "Item ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/items/{itemId} [delete]
func (h *DocumentHandler) RemoveItem(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	document, err := h.documentService.RemoveItem(c.Request.Context(), documentID, itemID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, document)
}

// Issue godoc
// @ID           issueDocument
// @Summary      Issue a document
// @Description  Move a draft document to issued status. Issued documents require at least one line item and become immutable.
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/issue [post]
func (h *DocumentHandler) Issue(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	document, err := h.documentService.Issue(c.Request.Context(), documentID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, document)
}

// MarkPaid godoc
// @ID           markDocumentPaid
// @Summary      Mark a document as paid
// @Description  Move an issued invoice to paid status
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/pay [post]
func (h *DocumentHandler) MarkPaid(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	document, err := h.documentService.MarkPaid(c.Request.Context(), documentID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, document)
}

// Cancel godoc
// @ID           cancelDocument
// @Summary      Cancel a document
// @Description  Cancel a draft or issued document with a reason. Cancelled documents are terminal.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Param        request body tradeapp.CancelRequest true "Cancellation reason"
// @Success      200 {object} APIResponse[tradeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/cancel [post]
func (h *DocumentHandler) Cancel(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	var req tradeapp.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	document, err := h.documentService.Cancel(c.Request.Context(), documentID, req, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, document)
}

// Delete godoc
// @ID           deleteDocument
// @Summary      Delete a document
// @Description  Delete a draft document. Issued, paid, and cancelled documents cannot be deleted.
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	err = h.documentService.Delete(c.Request.Context(), documentID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// DownloadPDF godoc
// @ID           downloadDocumentPdf
// @Summary      Download a document as PDF
// @Description  Render the document as a PDF file. When an archive store is configured the rendered copy is archived as well.
// @Tags         documents
// @Produce      application/pdf
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/pdf [get]
func (h *DocumentHandler) DownloadPDF(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	pdf, err := h.documentService.GeneratePDF(c.Request.Context(), documentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdf.DocumentNumber+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf.Content)
}
