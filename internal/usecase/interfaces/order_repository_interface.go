package interfaces

import (
	"context"

	"dleon_gold/internal/domain/entities"
)

// IOrderRepository abstracts DynamoDB persistence for Order.
//
// Contract notes:
//   - Reads return a zero-value Order (empty ID) when nothing matches.
//   - UpdateStatus is a compare-and-swap: the write only lands when the
//     stored status is one of `from`. A failed condition returns a
//     zero-value Order and a nil error; the use case re-reads to classify
//     not-found vs idempotent duplicate vs illegal transition. This is what
//     keeps two concurrent webhook deliveries from racing.
//   - provider/providerReference are written only when non-empty, so webhook
//     replays cannot blank out correlation data.

type IOrderRepository interface {
	Create(ctx context.Context, o entities.Order) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
	GetByProviderReference(ctx context.Context, ref string) (entities.Order, error)
	UpdateStatus(ctx context.Context, id string, from []entities.OrderStatus, to entities.OrderStatus, provider, providerReference string) (entities.Order, error)
}
