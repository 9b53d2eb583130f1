package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"dleon_gold/internal/domain/entities"
	"dleon_gold/internal/usecase/interfaces"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidOrderID    = errors.New("invalid order id")
	ErrInvalidOrderDraft = errors.New("invalid order draft")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// OrderDraft is the buyer-supplied input to order creation. Any totals the
// client sent alongside are discarded before the draft reaches this layer.
type OrderDraft struct {
	Customer       entities.Customer
	Items          []entities.OrderItem
	Shipping       float64
	PaymentMethod  entities.PaymentMethod
	PaymentChannel string
}

// IOrderUseCase is the order store contract. It is the only write path to
// order records: checkout performs the initial create plus the provider
// handoff transition, the webhook reconciler drives the rest.

type IOrderUseCase interface {
	CreateOrder(ctx context.Context, draft OrderDraft) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
	GetByProviderReference(ctx context.Context, ref string) (entities.Order, error)
	UpdateStatus(ctx context.Context, id string, to entities.OrderStatus, provider, providerReference string) (entities.Order, error)
}

type OrderUseCase struct {
	repo interfaces.IOrderRepository
}

var _ IOrderUseCase = (*OrderUseCase)(nil)

func NewOrderUseCase(repo interfaces.IOrderRepository) *OrderUseCase {
	return &OrderUseCase{repo: repo}
}

// CreateOrder validates the draft, recomputes subtotal/total from the line
// items and persists the order in INITIATED. The recomputation is not
// optional: a client-supplied total is never trusted.
func (u *OrderUseCase) CreateOrder(ctx context.Context, draft OrderDraft) (entities.Order, error) {
	if err := validateDraft(draft); err != nil {
		return entities.Order{}, err
	}

	now := time.Now().UTC()
	o := entities.Order{
		ID:             uuid.NewString(),
		Customer:       draft.Customer,
		Items:          draft.Items,
		Shipping:       draft.Shipping,
		PaymentMethod:  draft.PaymentMethod,
		PaymentChannel: strings.TrimSpace(draft.PaymentChannel),
		Status:         entities.OrderStatusInitiated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	o.Subtotal = o.ItemsSubtotal()
	o.Total = o.Subtotal + o.Shipping

	created, err := u.repo.Create(ctx, o)
	if err != nil {
		log.Printf("[order][usecase] create failed order_id=%s err=%v", o.ID, err)
		return entities.Order{}, err
	}
	log.Printf("[order][usecase] created order_id=%s total=%.2f method=%s", created.ID, created.Total, created.PaymentMethod)
	return created, nil
}

func (u *OrderUseCase) GetByID(ctx context.Context, id string) (entities.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Order{}, ErrInvalidOrderID
	}

	o, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Order{}, err
	}
	if o.ID == "" {
		return entities.Order{}, ErrOrderNotFound
	}
	return o, nil
}

// GetByProviderReference resolves an order from a provider's own transaction
// id via the GSI. Not-found is reported with the same sentinel as GetByID.
func (u *OrderUseCase) GetByProviderReference(ctx context.Context, ref string) (entities.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return entities.Order{}, ErrInvalidOrderID
	}

	o, err := u.repo.GetByProviderReference(ctx, ref)
	if err != nil {
		return entities.Order{}, err
	}
	if o.ID == "" {
		return entities.Order{}, ErrOrderNotFound
	}
	return o, nil
}

// UpdateStatus applies a state-machine transition idempotently.
//
// The repository write is conditional on the order currently sitting in one
// of the legal source statuses for `to`. When the condition fails the current
// record decides the outcome:
//   - already in `to`: duplicate delivery, returned as success (no-op)
//   - anything else: ErrInvalidTransition, with the current order attached so
//     callers can log the conflict without another read
func (u *OrderUseCase) UpdateStatus(ctx context.Context, id string, to entities.OrderStatus, provider, providerReference string) (entities.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Order{}, ErrInvalidOrderID
	}
	from := entities.TransitionSources(to)
	if len(from) == 0 {
		return entities.Order{}, ErrInvalidStatus
	}

	updated, err := u.repo.UpdateStatus(ctx, id, from, to, provider, providerReference)
	if err != nil {
		log.Printf("[order][usecase] update-status failed order_id=%s to=%s err=%v", id, to, err)
		return entities.Order{}, err
	}
	if updated.ID != "" {
		log.Printf("[order][usecase] update-status applied order_id=%s to=%s", id, to)
		return updated, nil
	}

	// The conditional write did not land. Re-read to classify.
	current, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Order{}, err
	}
	if current.ID == "" {
		return entities.Order{}, ErrOrderNotFound
	}
	if current.Status == to {
		log.Printf("[order][usecase] update-status no-op order_id=%s status=%s", id, to)
		return current, nil
	}
	log.Printf("[order][usecase] update-status conflict order_id=%s current=%s requested=%s", id, current.Status, to)
	return current, ErrInvalidTransition
}

func validateDraft(draft OrderDraft) error {
	if len(draft.Items) == 0 {
		return ErrInvalidOrderDraft
	}
	for _, it := range draft.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.Quantity <= 0 || it.UnitPrice < 0 {
			return ErrInvalidOrderDraft
		}
	}
	if draft.Shipping < 0 {
		return ErrInvalidOrderDraft
	}
	if !draft.PaymentMethod.Valid() {
		return ErrInvalidOrderDraft
	}
	if strings.TrimSpace(draft.Customer.Email) == "" {
		return ErrInvalidOrderDraft
	}
	return nil
}
