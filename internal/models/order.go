package models

type OrderState string

const (
	OrderStateActive   OrderState = "active"
	OrderStateComplete OrderState = "complete"
)

// Order is the bare orders row.
type Order struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64       `gorm:"column:u_id;not null;index" json:"u_id"`
	State  OrderState  `gorm:"type:varchar(20);not null" json:"state"`
	User   User        `gorm:"foreignKey:UserID" json:"-"`
	Lines  []OrderLine `gorm:"foreignKey:OrderID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderLine is one row of the order/product join table.
type OrderLine struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64   `gorm:"not null;index" json:"order_id"`
	ProductID int64   `gorm:"not null;index" json:"product_id"`
	Quantity  int     `gorm:"not null;default:1" json:"quantity"`
	Product   Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (OrderLine) TableName() string {
	return "order_products"
}

// OrderedProduct is a product line inside a PopulatedOrder. Name, price and
// category are read from the current product row, not snapshotted.
type OrderedProduct struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
}

// PopulatedOrder is an order with its owner's display fields and its lines.
type PopulatedOrder struct {
	ID         int64            `json:"id"`
	State      OrderState       `json:"state"`
	UserID     int64            `json:"u_id"`
	UFirstname string           `json:"u_firstname"`
	ULastname  string           `json:"u_lastname"`
	UUsername  string           `json:"u_username"`
	Products   []OrderedProduct `json:"products"`
}

type OrderItem struct {
	ID       int64 `json:"id" validate:"required"`
	Quantity *int  `json:"quantity" validate:"omitnil,min=1"`
}

type CreateOrder struct {
	Products []OrderItem `json:"products" validate:"required,min=1,dive"`
	State    OrderState  `json:"state" validate:"required,oneof=active complete"`
}

type UpdateOrder struct {
	State *OrderState `json:"state" validate:"omitnil,oneof=active complete"`
}
