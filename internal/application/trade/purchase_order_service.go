package trade

import (
	"context"
	"fmt"

	"github.com/backoffice/backend/internal/domain/audit"
	"github.com/backoffice/backend/internal/domain/partner"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const entityTypePurchaseOrder = "purchase_order"

// PurchaseOrderService handles purchase order application logic
type PurchaseOrderService struct {
	orderRepo      trade.PurchaseOrderRepository
	partyRepo      partner.PartyRepository
	historyRepo    audit.OperationHistoryRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPurchaseOrderService creates a new purchase order service
func NewPurchaseOrderService(orderRepo trade.PurchaseOrderRepository, partyRepo partner.PartyRepository, historyRepo audit.OperationHistoryRepository) *PurchaseOrderService {
	return &PurchaseOrderService{
		orderRepo:   orderRepo,
		partyRepo:   partyRepo,
		historyRepo: historyRepo,
		logger:      zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for non-fatal failures
func (s *PurchaseOrderService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// Create creates a new purchase order in ordered status
func (s *PurchaseOrderService) Create(ctx context.Context, req CreatePurchaseOrderRequest, actor audit.Actor) (*PurchaseOrderResponse, error) {
	supplier, err := s.partyRepo.FindByID(ctx, req.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier.Type != partner.PartyTypeSupplier {
		return nil, shared.NewDomainError("INVALID_PARTY_TYPE", "Purchase orders can only be placed with suppliers")
	}
	if !supplier.IsActive {
		return nil, shared.NewDomainError("PARTY_INACTIVE", fmt.Sprintf("Supplier %s is deactivated", supplier.Code))
	}

	orderNumber, err := s.orderRepo.NextOrderNumber(ctx, req.OrderDate)
	if err != nil {
		return nil, err
	}

	order, err := trade.NewPurchaseOrder(orderNumber, supplier.ID, supplier.Name, req.OrderDate)
	if err != nil {
		return nil, err
	}

	if req.TaxRate != nil {
		if err := order.SetTaxRate(*req.TaxRate); err != nil {
			return nil, err
		}
	}
	if req.ExpectedDate != nil {
		if err := order.SetExpectedDate(req.ExpectedDate); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		order.SetNotes(req.Notes)
	}
	for _, item := range req.Items {
		if _, err := order.AddItem(item.Name, item.Quantity, valueobject.NewMoneyJPY(item.UnitPrice)); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, order.ID, audit.OperationActionCreated,
		fmt.Sprintf("purchase order %s created for %s", order.OrderNumber, order.SupplierName), actor)
	s.publishEvents(ctx, order)

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByNumber retrieves a purchase order by its order number
func (s *PurchaseOrderService) GetByNumber(ctx context.Context, orderNumber string) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// List retrieves purchase orders matching the filter
func (s *PurchaseOrderService) List(ctx context.Context, filter PurchaseOrderListFilter) ([]PurchaseOrderListResponse, int64, error) {
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
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.SupplierID != nil {
		domainFilter.Filters["supplier_id"] = *filter.SupplierID
	}
	if filter.DateFrom != nil {
		domainFilter.Filters["date_from"] = *filter.DateFrom
	}
	if filter.DateTo != nil {
		domainFilter.Filters["date_to"] = *filter.DateTo
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToPurchaseOrderListResponses(orders), total, nil
}

// Update updates an ordered purchase order's attributes
func (s *PurchaseOrderService) Update(ctx context.Context, orderID uuid.UUID, req UpdatePurchaseOrderRequest, actor audit.Actor) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if req.TaxRate != nil {
		if err := order.SetTaxRate(*req.TaxRate); err != nil {
			return nil, err
		}
	}
	if req.ExpectedDate != nil {
		if err := order.SetExpectedDate(req.ExpectedDate); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		order.SetNotes(*req.Notes)
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, order.ID, audit.OperationActionUpdated,
		fmt.Sprintf("purchase order %s updated", order.OrderNumber), actor)

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// AddItem adds a line item to an ordered purchase order
func (s *PurchaseOrderService) AddItem(ctx context.Context, orderID uuid.UUID, req CreateItemRequest, actor audit.Actor) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if _, err := order.AddItem(req.Name, req.Quantity, valueobject.NewMoneyJPY(req.UnitPrice)); err != nil {
		return nil, err
	}

	return s.saveWithHistory(ctx, order,
		fmt.Sprintf("item %s added to %s", req.Name, order.OrderNumber), actor)
}

// UpdateItem updates a line item on an ordered purchase order
func (s *PurchaseOrderService) UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, req UpdateItemRequest, actor audit.Actor) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.UpdateItem(itemID, req.Name, req.Quantity, valueobject.NewMoneyJPY(req.UnitPrice)); err != nil {
		return nil, err
	}

	return s.saveWithHistory(ctx, order,
		fmt.Sprintf("item updated on %s", order.OrderNumber), actor)
}

// RemoveItem removes a line item from an ordered purchase order
func (s *PurchaseOrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID, actor audit.Actor) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.RemoveItem(itemID); err != nil {
		return nil, err
	}

	return s.saveWithHistory(ctx, order,
		fmt.Sprintf("item removed from %s", order.OrderNumber), actor)
}

// MarkDelivered transitions an ordered purchase order to delivered
func (s *PurchaseOrderService) MarkDelivered(ctx context.Context, orderID uuid.UUID, actor audit.Actor) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, orderID, actor, func(o *trade.PurchaseOrder) error {
		return o.MarkDelivered()
	})
}

// Cancel cancels an ordered purchase order
func (s *PurchaseOrderService) Cancel(ctx context.Context, orderID uuid.UUID, req CancelRequest, actor audit.Actor) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, orderID, actor, func(o *trade.PurchaseOrder) error {
		return o.Cancel(req.Reason)
	})
}

func (s *PurchaseOrderService) transition(ctx context.Context, orderID uuid.UUID, actor audit.Actor, apply func(*trade.PurchaseOrder) error) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	fromStatus := order.Status
	if err := apply(order); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	if s.historyRepo != nil {
		record, err := audit.NewStatusChangeRecord(entityTypePurchaseOrder, order.ID,
			fromStatus.String(), order.Status.String(),
			fmt.Sprintf("purchase order %s", order.OrderNumber))
		if err == nil {
			err = s.historyRepo.Append(ctx, record.Attribute(actor))
		}
		if err != nil {
			s.logHistoryFailure(order.ID, err)
		}
	}
	s.publishEvents(ctx, order)

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Delete removes a purchase order that has not been delivered
func (s *PurchaseOrderService) Delete(ctx context.Context, orderID uuid.UUID, actor audit.Actor) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.IsOrdered() {
		return shared.NewDomainError("INVALID_STATE", "Only open purchase orders can be deleted")
	}

	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return err
	}

	s.recordHistory(ctx, order.ID, audit.OperationActionDeleted,
		fmt.Sprintf("purchase order %s deleted", order.OrderNumber), actor)
	return nil
}

func (s *PurchaseOrderService) saveWithHistory(ctx context.Context, order *trade.PurchaseOrder, detail string, actor audit.Actor) (*PurchaseOrderResponse, error) {
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.recordHistory(ctx, order.ID, audit.OperationActionUpdated, detail, actor)
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// recordHistory appends an operation history record. The business change is
// already persisted at this point, so a failed append is logged and swallowed.
func (s *PurchaseOrderService) recordHistory(ctx context.Context, orderID uuid.UUID, action audit.OperationAction, detail string, actor audit.Actor) {
	if s.historyRepo == nil {
		return
	}
	record, err := audit.NewOperationRecord(entityTypePurchaseOrder, orderID, action, detail)
	if err == nil {
		err = s.historyRepo.Append(ctx, record.Attribute(actor))
	}
	if err != nil {
		s.logHistoryFailure(orderID, err)
	}
}

func (s *PurchaseOrderService) logHistoryFailure(orderID uuid.UUID, err error) {
	s.logger.Warn("Failed to record operation history",
		zap.String("entity_type", entityTypePurchaseOrder),
		zap.String("entity_id", orderID.String()),
		zap.Error(err))
}

func (s *PurchaseOrderService) publishEvents(ctx context.Context, order *trade.PurchaseOrder) {
	if s.eventPublisher == nil {
		return
	}
	events := order.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	order.ClearDomainEvents()
}
