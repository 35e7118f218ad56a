package service

import (
	"context"
	"time"

	"github.com/Baaaki/storefront/internal/broker"
	"github.com/Baaaki/storefront/internal/metrics"
	"github.com/Baaaki/storefront/internal/models"
	"github.com/Baaaki/storefront/internal/repository"
	"github.com/Baaaki/storefront/pkg/logger"
	"go.uber.org/zap"
)

// OrderService wraps the order repository and announces every change on
// the broker. Publish failures are logged, never returned.
type OrderService struct {
	orders    *repository.OrderRepository
	publisher broker.Publisher
}

func NewOrderService(orders *repository.OrderRepository, publisher broker.Publisher) *OrderService {
	if publisher == nil {
		publisher = broker.NoopPublisher{}
	}
	return &OrderService{orders: orders, publisher: publisher}
}

func (s *OrderService) Index(ctx context.Context) ([]models.PopulatedOrder, error) {
	return s.orders.Index(ctx)
}

func (s *OrderService) Show(ctx context.Context, id int64) (*models.PopulatedOrder, error) {
	return s.orders.Show(ctx, id)
}

func (s *OrderService) ShowByUser(ctx context.Context, userID int64) ([]models.PopulatedOrder, error) {
	return s.orders.ShowByUser(ctx, userID)
}

func (s *OrderService) ShowCompleteByUser(ctx context.Context, userID int64) ([]models.PopulatedOrder, error) {
	return s.orders.ShowCompleteByUser(ctx, userID)
}

func (s *OrderService) Create(ctx context.Context, userID int64, in models.CreateOrder) (*models.PopulatedOrder, error) {
	order, err := s.orders.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	metrics.IncOrdersCreated()
	s.publish(ctx, broker.EventOrderCreated, order.ID, order.UserID, order)
	return order, nil
}

func (s *OrderService) Update(ctx context.Context, id int64, in models.UpdateOrder) (*models.PopulatedOrder, error) {
	order, err := s.orders.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, broker.EventOrderUpdated, order.ID, order.UserID, order)
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id int64) (models.DeleteResponse, error) {
	// The owner is needed to route the event and is gone after the delete.
	owner, ownerErr := s.orders.Owner(ctx, id)

	res, err := s.orders.Delete(ctx, id)
	if err != nil {
		return models.DeleteResponse{}, err
	}

	if res.OK && ownerErr == nil {
		s.publish(ctx, broker.EventOrderDeleted, id, owner, nil)
	}
	return res, nil
}

func (s *OrderService) publish(ctx context.Context, eventType broker.EventType, orderID, userID int64, order *models.PopulatedOrder) {
	event := broker.OrderEvent{
		Type:      eventType,
		OrderID:   orderID,
		UserID:    userID,
		Order:     order,
		Timestamp: time.Now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Log.Error("Failed to publish order event",
			zap.String("type", string(eventType)),
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
	}
}
