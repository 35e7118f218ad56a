package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/storefront/internal/apperror"
	"github.com/Baaaki/storefront/internal/models"
	"github.com/Baaaki/storefront/internal/validation"
	"github.com/Baaaki/storefront/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const orderRowColumns = `
	orders.id,
	orders.state,
	orders.u_id,
	users.firstname AS u_firstname,
	users.lastname AS u_lastname,
	users.username AS u_username,
	products.id AS product_id,
	products.name AS product_name,
	products.price AS product_price,
	products.category AS product_category,
	order_products.quantity
`

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// populated runs the four table join and folds the rows. scope narrows the
// orders selected.
func populated(db *gorm.DB, scope func(*gorm.DB) *gorm.DB) ([]models.PopulatedOrder, error) {
	var rows []OrderRow
	q := db.Table("orders").
		Select(orderRowColumns).
		Joins("JOIN order_products ON order_products.order_id = orders.id").
		Joins("JOIN products ON products.id = order_products.product_id").
		Joins("JOIN users ON users.id = orders.u_id")
	if scope != nil {
		q = scope(q)
	}
	if err := q.Order("orders.id, order_products.id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return AggregateOrders(rows), nil
}

func (r *OrderRepository) Index(ctx context.Context) ([]models.PopulatedOrder, error) {
	return populated(r.db.WithContext(ctx), nil)
}

func (r *OrderRepository) Show(ctx context.Context, id int64) (*models.PopulatedOrder, error) {
	return showOrder(r.db.WithContext(ctx), id)
}

func showOrder(db *gorm.DB, id int64) (*models.PopulatedOrder, error) {
	orders, err := populated(db, func(q *gorm.DB) *gorm.DB {
		return q.Where("orders.id = ?", id)
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperror.NotFound("Can't find order with id %d.", id)
	}
	return &orders[0], nil
}

func (r *OrderRepository) ShowByUser(ctx context.Context, userID int64) ([]models.PopulatedOrder, error) {
	return populated(r.db.WithContext(ctx), func(q *gorm.DB) *gorm.DB {
		return q.Where("orders.u_id = ?", userID)
	})
}

func (r *OrderRepository) ShowCompleteByUser(ctx context.Context, userID int64) ([]models.PopulatedOrder, error) {
	return populated(r.db.WithContext(ctx), func(q *gorm.DB) *gorm.DB {
		return q.Where("orders.u_id = ? AND orders.state = ?", userID, models.OrderStateComplete)
	})
}

// Create inserts the order and its lines in one transaction and returns the
// populated order. A line without quantity gets quantity 1.
func (r *OrderRepository) Create(ctx context.Context, userID int64, in models.CreateOrder) (*models.PopulatedOrder, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var created *models.PopulatedOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order := &models.Order{UserID: userID, State: in.State}
		if err := tx.Omit("User", "Lines").Create(order).Error; err != nil {
			return err
		}

		lines := make([]models.OrderLine, 0, len(in.Products))
		for _, item := range in.Products {
			quantity := 1
			if item.Quantity != nil {
				quantity = *item.Quantity
			}
			lines = append(lines, models.OrderLine{
				OrderID:   order.ID,
				ProductID: item.ID,
				Quantity:  quantity,
			})
		}
		if err := tx.Omit("Product").Create(&lines).Error; err != nil {
			return err
		}

		var err error
		created, err = showOrder(tx, order.ID)
		return err
	})
	if err != nil {
		logger.Log.Error("Failed to create order", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Order created",
		zap.Int64("order_id", created.ID),
		zap.Int64("user_id", userID),
		zap.Int("lines", len(created.Products)),
	)
	return created, nil
}

// Update changes the order state.
func (r *OrderRepository) Update(ctx context.Context, id int64, in models.UpdateOrder) (*models.PopulatedOrder, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var fields []Field
	if in.State != nil {
		fields = append(fields, Field{Column: "state", Value: string(*in.State)})
	}

	q, err := BuildUpdateQuery("orders", fields, id)
	if err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	var order models.Order
	res := db.Raw(q.SQL, q.Args...).Scan(&order)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("Can't find order with id %d.", id)
	}
	return showOrder(db, id)
}

// Delete removes the order lines and then the order in one transaction.
func (r *OrderRepository) Delete(ctx context.Context, id int64) (models.DeleteResponse, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return models.DeleteResponse{}, err
	}
	return models.DeleteResponse{OK: removed == 1}, nil
}

// Owner returns the user id of the order, used for event routing.
func (r *OrderRepository) Owner(ctx context.Context, id int64) (int64, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Select("id", "u_id").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperror.NotFound("Can't find order with id %d.", id)
		}
		return 0, err
	}
	return order.UserID, nil
}

// LinesFor reads the order_products rows of an order directly.
func (r *OrderRepository) LinesFor(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	lines := make([]models.OrderLine, 0)
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
