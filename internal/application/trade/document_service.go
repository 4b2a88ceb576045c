package trade

import (
	"context"
	"fmt"

	"github.com/backoffice/backend/internal/domain/audit"
	"github.com/backoffice/backend/internal/domain/partner"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/backoffice/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const entityTypeDocument = "document"

// PDFPrinter renders a document as a PDF
type PDFPrinter interface {
	Print(ctx context.Context, doc *trade.Document) ([]byte, error)
}

// PDFArchiver stores rendered PDFs for later retrieval
type PDFArchiver interface {
	Store(ctx context.Context, documentNumber string, pdf []byte) (string, error)
}

// DocumentService handles sales document application logic
type DocumentService struct {
	documentRepo   trade.DocumentRepository
	partyRepo      partner.PartyRepository
	historyRepo    audit.OperationHistoryRepository
	eventPublisher shared.EventPublisher
	printer        PDFPrinter
	archive        PDFArchiver
	logger         *zap.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(documentRepo trade.DocumentRepository, partyRepo partner.PartyRepository, historyRepo audit.OperationHistoryRepository) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		partyRepo:    partyRepo,
		historyRepo:  historyRepo,
		logger:       zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DocumentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for non-fatal failures
func (s *DocumentService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// SetPrinter sets the PDF renderer used by GeneratePDF
func (s *DocumentService) SetPrinter(printer PDFPrinter) {
	s.printer = printer
}

// SetArchive sets the archive that keeps a copy of every rendered PDF
func (s *DocumentService) SetArchive(archive PDFArchiver) {
	s.archive = archive
}

// DocumentPDF holds a rendered PDF and its document number
type DocumentPDF struct {
	DocumentNumber string
	Content        []byte
}

// GeneratePDF renders a document as a PDF. When an archive is configured
// the rendered copy is stored there as well; archive failures do not
// block the caller, the next request simply renders again.
func (s *DocumentService) GeneratePDF(ctx context.Context, documentID uuid.UUID) (*DocumentPDF, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "pdf",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, documentID.String()))
	defer span.End()

	if s.printer == nil {
		return nil, shared.NewDomainError("PRINTING_UNAVAILABLE", "PDF rendering is not configured")
	}

	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	pdf, err := s.printer.Print(ctx, document)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewDomainError("PRINTING_FAILED", "Failed to render the document PDF")
	}

	if s.archive != nil {
		if _, err := s.archive.Store(ctx, document.DocumentNumber, pdf); err != nil {
			telemetry.AddEvent(span, "archive_store_failed")
		}
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrDocumentNumber, document.DocumentNumber)
	return &DocumentPDF{DocumentNumber: document.DocumentNumber, Content: pdf}, nil
}

// Create creates a new sales document in draft status
func (s *DocumentService) Create(ctx context.Context, req CreateDocumentRequest, actor audit.Actor) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "create",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentType, req.Type))
	defer span.End()

	customer, err := s.partyRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if customer.Type != partner.PartyTypeCustomer {
		return nil, shared.NewDomainError("INVALID_PARTY_TYPE", "Documents can only be issued to customers")
	}
	if !customer.IsActive {
		return nil, shared.NewDomainError("PARTY_INACTIVE", fmt.Sprintf("Customer %s is deactivated", customer.Code))
	}

	documentNumber, err := s.documentRepo.NextDocumentNumber(ctx, req.IssueDate)
	if err != nil {
		return nil, err
	}

	document, err := trade.NewDocument(documentNumber, trade.DocumentType(req.Type), customer.ID, customer.Name, req.IssueDate)
	if err != nil {
		return nil, err
	}

	if req.TaxRate != nil {
		if err := document.SetTaxRate(*req.TaxRate); err != nil {
			return nil, err
		}
	}
	if req.DueDate != nil {
		if err := document.SetDueDate(req.DueDate); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		document.SetNotes(req.Notes)
	}
	for _, item := range req.Items {
		if _, err := document.AddItem(item.Name, item.Quantity, valueobject.NewMoneyJPY(item.UnitPrice)); err != nil {
			return nil, err
		}
	}

	if err := s.documentRepo.Save(ctx, document); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDocumentID, document.ID.String(),
		telemetry.SpanAttrDocumentNumber, document.DocumentNumber,
	)

	s.recordHistory(ctx, document.ID, audit.OperationActionCreated,
		fmt.Sprintf("%s %s created for %s", document.Type, document.DocumentNumber, document.CustomerName), actor)
	s.publishEvents(ctx, document)

	response := ToDocumentResponse(document)
	return &response, nil
}

// GetByID retrieves a document by ID
func (s *DocumentService) GetByID(ctx context.Context, documentID uuid.UUID) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(document)
	return &response, nil
}

// GetByNumber retrieves a document by its document number
func (s *DocumentService) GetByNumber(ctx context.Context, documentNumber string) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByNumber(ctx, documentNumber)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(document)
	return &response, nil
}

// List retrieves documents matching the filter
func (s *DocumentService) List(ctx context.Context, filter DocumentListFilter) ([]DocumentListResponse, int64, error) {
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
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.DateFrom != nil {
		domainFilter.Filters["date_from"] = *filter.DateFrom
	}
	if filter.DateTo != nil {
		domainFilter.Filters["date_to"] = *filter.DateTo
	}

	documents, err := s.documentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.documentRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToDocumentListResponses(documents), total, nil
}

// Update updates a draft document's attributes
func (s *DocumentService) Update(ctx context.Context, documentID uuid.UUID, req UpdateDocumentRequest, actor audit.Actor) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if req.TaxRate != nil {
		if err := document.SetTaxRate(*req.TaxRate); err != nil {
			return nil, err
		}
	}
	if req.DueDate != nil {
		if err := document.SetDueDate(req.DueDate); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		document.SetNotes(*req.Notes)
	}

	if err := s.documentRepo.Save(ctx, document); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, document.ID, audit.OperationActionUpdated,
		fmt.Sprintf("%s %s updated", document.Type, document.DocumentNumber), actor)

	response := ToDocumentResponse(document)
	return &response, nil
}

// AddItem adds a line item to a draft document
func (s *DocumentService) AddItem(ctx context.Context, documentID uuid.UUID, req CreateItemRequest, actor audit.Actor) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if _, err := document.AddItem(req.Name, req.Quantity, valueobject.NewMoneyJPY(req.UnitPrice)); err != nil {
		return nil, err
	}

	return s.saveWithHistory(ctx, document,
		fmt.Sprintf("item %s added to %s", req.Name, document.DocumentNumber), actor)
}

// UpdateItem updates a line item on a draft document
func (s *DocumentService) UpdateItem(ctx context.Context, documentID, itemID uuid.UUID, req UpdateItemRequest, actor audit.Actor) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := document.UpdateItem(itemID, req.Name, req.Quantity, valueobject.NewMoneyJPY(req.UnitPrice)); err != nil {
		return nil, err
	}

	return s.saveWithHistory(ctx, document,
		fmt.Sprintf("item updated on %s", document.DocumentNumber), actor)
}

// RemoveItem removes a line item from a draft document
func (s *DocumentService) RemoveItem(ctx context.Context, documentID, itemID uuid.UUID, actor audit.Actor) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := document.RemoveItem(itemID); err != nil {
		return nil, err
	}

	return s.saveWithHistory(ctx, document,
		fmt.Sprintf("item removed from %s", document.DocumentNumber), actor)
}

// Issue transitions a draft document to issued
func (s *DocumentService) Issue(ctx context.Context, documentID uuid.UUID, actor audit.Actor) (*DocumentResponse, error) {
	return s.transition(ctx, documentID, actor, func(d *trade.Document) error {
		return d.Issue()
	})
}

// MarkPaid transitions an issued document to paid
func (s *DocumentService) MarkPaid(ctx context.Context, documentID uuid.UUID, actor audit.Actor) (*DocumentResponse, error) {
	return s.transition(ctx, documentID, actor, func(d *trade.Document) error {
		return d.MarkPaid()
	})
}

// Cancel cancels a draft or issued document
func (s *DocumentService) Cancel(ctx context.Context, documentID uuid.UUID, req CancelRequest, actor audit.Actor) (*DocumentResponse, error) {
	return s.transition(ctx, documentID, actor, func(d *trade.Document) error {
		return d.Cancel(req.Reason)
	})
}

// transition applies a status change, saves and writes exactly one
// status_changed history record carrying both statuses.
func (s *DocumentService) transition(ctx context.Context, documentID uuid.UUID, actor audit.Actor, apply func(*trade.Document) error) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "transition",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, documentID.String()))
	defer span.End()

	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	fromStatus := document.Status
	if err := apply(document); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.documentRepo.Save(ctx, document); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrDocumentStatus, document.Status.String())

	if s.historyRepo != nil {
		record, err := audit.NewStatusChangeRecord(entityTypeDocument, document.ID,
			fromStatus.String(), document.Status.String(),
			fmt.Sprintf("%s %s", document.Type, document.DocumentNumber))
		if err == nil {
			err = s.historyRepo.Append(ctx, record.Attribute(actor))
		}
		if err != nil {
			s.logHistoryFailure(document.ID, err)
		}
	}
	s.publishEvents(ctx, document)

	response := ToDocumentResponse(document)
	return &response, nil
}

// Delete removes a draft document
func (s *DocumentService) Delete(ctx context.Context, documentID uuid.UUID, actor audit.Actor) error {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return err
	}
	if !document.IsDraft() {
		return shared.NewDomainError("INVALID_STATE", "Only draft documents can be deleted")
	}

	if err := s.documentRepo.Delete(ctx, documentID); err != nil {
		return err
	}

	s.recordHistory(ctx, document.ID, audit.OperationActionDeleted,
		fmt.Sprintf("%s %s deleted", document.Type, document.DocumentNumber), actor)
	return nil
}

func (s *DocumentService) saveWithHistory(ctx context.Context, document *trade.Document, detail string, actor audit.Actor) (*DocumentResponse, error) {
	if err := s.documentRepo.Save(ctx, document); err != nil {
		return nil, err
	}
	s.recordHistory(ctx, document.ID, audit.OperationActionUpdated, detail, actor)
	response := ToDocumentResponse(document)
	return &response, nil
}

// recordHistory appends an operation history record. The business change is
// already persisted at this point, so a failed append is logged and swallowed.
func (s *DocumentService) recordHistory(ctx context.Context, documentID uuid.UUID, action audit.OperationAction, detail string, actor audit.Actor) {
	if s.historyRepo == nil {
		return
	}
	record, err := audit.NewOperationRecord(entityTypeDocument, documentID, action, detail)
	if err == nil {
		err = s.historyRepo.Append(ctx, record.Attribute(actor))
	}
	if err != nil {
		s.logHistoryFailure(documentID, err)
	}
}

func (s *DocumentService) logHistoryFailure(documentID uuid.UUID, err error) {
	s.logger.Warn("Failed to record operation history",
		zap.String("entity_type", entityTypeDocument),
		zap.String("entity_id", documentID.String()),
		zap.Error(err))
}

func (s *DocumentService) publishEvents(ctx context.Context, document *trade.Document) {
	if s.eventPublisher == nil {
		return
	}
	events := document.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	document.ClearDomainEvents()
}
