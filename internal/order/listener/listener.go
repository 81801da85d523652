// Package listener syncs delivered orders into restaurant stock. It consumes
// the order status topic and applies the delivered quantities as incoming
// stock on the ordering restaurant.
package listener

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/restohub/supply-service/internal/ledger"
	ledgerdto "github.com/restohub/supply-service/internal/ledger/dto"
	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/order"
	"github.com/restohub/supply-service/internal/pkg/broker"
)

type DeliveryListener struct {
	consumer *broker.Consumer
	ledgerUC ledger.UseCase
	logger   *zap.Logger
}

func NewDeliveryListener(consumer *broker.Consumer, ledgerUC ledger.UseCase, log *zap.Logger) *DeliveryListener {
	return &DeliveryListener{consumer: consumer, ledgerUC: ledgerUC, logger: log}
}

// Run consumes until ctx is cancelled. Handler errors are logged and the
// message is skipped; the ledger movement's order reference makes redelivery
// auditable, not harmful.
func (l *DeliveryListener) Run(ctx context.Context) {
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			l.logger.Error("failed to read status event", zap.Error(err))
			continue
		}
		if err := l.handle(ctx, msg.Value); err != nil {
			l.logger.Error("failed to apply status event",
				zap.ByteString("key", msg.Key), zap.Error(err))
		}
	}
}

func (l *DeliveryListener) handle(ctx context.Context, value []byte) error {
	var ev order.StatusChangedEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return err
	}
	if ev.EventType != order.EventTypeStatusChanged || ev.ToStatus != model.StatusDelivered {
		return nil
	}

	for _, it := range ev.Items {
		if it.QuantityDelivered <= 0 {
			continue
		}
		_, err := l.ledgerUC.AdjustStock(ctx, ev.Namespace, &ledgerdto.AdjustStockInput{
			Kind:          model.LocationRestaurant,
			LocationID:    ev.RestaurantID,
			ItemID:        it.ItemID,
			Delta:         it.QuantityDelivered,
			Reason:        "order received",
			ReferenceType: "order",
			ReferenceID:   ev.OrderID,
			Actor:         model.System,
		})
		if err != nil {
			return err
		}
	}

	l.logger.Info("delivered order synced to restaurant stock",
		zap.String("namespace", ev.Namespace),
		zap.String("order_id", ev.OrderID),
		zap.String("restaurant_id", ev.RestaurantID),
		zap.Int("lines", len(ev.Items)))
	return nil
}
