package repository

import "github.com/Baaaki/storefront/internal/models"

// OrderRow is one row of the orders x order_products x products x users join.
type OrderRow struct {
	ID              int64             `gorm:"column:id"`
	State           models.OrderState `gorm:"column:state"`
	UserID          int64             `gorm:"column:u_id"`
	UFirstname      string            `gorm:"column:u_firstname"`
	ULastname       string            `gorm:"column:u_lastname"`
	UUsername       string            `gorm:"column:u_username"`
	ProductID       int64             `gorm:"column:product_id"`
	ProductName     string            `gorm:"column:product_name"`
	ProductPrice    float64           `gorm:"column:product_price"`
	ProductCategory string            `gorm:"column:product_category"`
	Quantity        int               `gorm:"column:quantity"`
}

// AggregateOrders folds flat join rows into one PopulatedOrder per order id.
// Orders keep the order in which their id was first seen, and lines keep row
// order. Orders without any line row never appear.
func AggregateOrders(rows []OrderRow) []models.PopulatedOrder {
	orders := make([]models.PopulatedOrder, 0)
	index := make(map[int64]int)

	for _, row := range rows {
		i, seen := index[row.ID]
		if !seen {
			i = len(orders)
			index[row.ID] = i
			orders = append(orders, models.PopulatedOrder{
				ID:         row.ID,
				State:      row.State,
				UserID:     row.UserID,
				UFirstname: row.UFirstname,
				ULastname:  row.ULastname,
				UUsername:  row.UUsername,
				Products:   []models.OrderedProduct{},
			})
		}

		orders[i].Products = append(orders[i].Products, models.OrderedProduct{
			ID:       row.ProductID,
			Name:     row.ProductName,
			Price:    row.ProductPrice,
			Category: row.ProductCategory,
			Quantity: row.Quantity,
		})
	}

	return orders
}
