package models

type Product struct {
	ID       int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string  `gorm:"type:varchar(255);not null" json:"name"`
	Price    float64 `gorm:"not null" json:"price"`
	Category string  `gorm:"type:varchar(100);not null;index" json:"category"`
}

func (Product) TableName() string {
	return "products"
}

// ProductWithQuantity is a product together with the total quantity ordered.
type ProductWithQuantity struct {
	Product
	Quantity int `json:"quantity"`
}

// CreateProduct.Price is a pointer so a missing price and an explicit 0
// report different rules.
type CreateProduct struct {
	Name     string   `json:"name" validate:"required,min=3"`
	Price    *float64 `json:"price" validate:"required,gt=0"`
	Category string   `json:"category" validate:"required,min=3"`
}

type UpdateProduct struct {
	Name     *string  `json:"name" validate:"omitnil,min=3"`
	Price    *float64 `json:"price" validate:"omitnil,gt=0"`
	Category *string  `json:"category" validate:"omitnil,min=3"`
}

type ProductCategory struct {
	Category string `json:"category" validate:"required"`
}
