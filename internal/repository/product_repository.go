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

const topFiveQuery = `
	SELECT
		products.id,
		products.name,
		products.price,
		products.category,
		CAST(SUM(order_products.quantity) AS INTEGER) AS quantity
	FROM order_products
	JOIN products ON order_products.product_id = products.id
	GROUP BY products.id, products.name, products.price, products.category
	ORDER BY quantity DESC, products.id
	LIMIT 5
`

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Index(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) Show(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Can't find product with id %d.", id)
		}
		return nil, err
	}
	return &product, nil
}

// ShowByCategory returns products whose category matches exactly.
func (r *ProductRepository) ShowByCategory(ctx context.Context, category string) ([]models.Product, error) {
	if err := validation.Struct(models.ProductCategory{Category: category}); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0)
	err := r.db.WithContext(ctx).Where("category = ?", category).Order("id").Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ShowTopFive returns at most five products ordered by total ordered quantity.
func (r *ProductRepository) ShowTopFive(ctx context.Context) ([]models.ProductWithQuantity, error) {
	products := make([]models.ProductWithQuantity, 0)
	if err := r.db.WithContext(ctx).Raw(topFiveQuery).Scan(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) Create(ctx context.Context, in models.CreateProduct) (*models.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:     in.Name,
		Price:    *in.Price,
		Category: in.Category,
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		logger.Log.Error("Failed to create product", zap.String("name", in.Name), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Product created", zap.Int64("product_id", product.ID))
	return product, nil
}

func (r *ProductRepository) Update(ctx context.Context, id int64, in models.UpdateProduct) (*models.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var fields []Field
	if in.Name != nil {
		fields = append(fields, Field{Column: "name", Value: *in.Name})
	}
	if in.Price != nil {
		fields = append(fields, Field{Column: "price", Value: *in.Price})
	}
	if in.Category != nil {
		fields = append(fields, Field{Column: "category", Value: *in.Category})
	}

	q, err := BuildUpdateQuery("products", fields, id)
	if err != nil {
		return nil, err
	}

	var product models.Product
	res := r.db.WithContext(ctx).Raw(q.SQL, q.Args...).Scan(&product)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("Can't find product with id %d.", id)
	}
	return &product, nil
}

// Delete removes the product row. Existing order lines keep referencing it,
// so the foreign key rejects deleting an ordered product.
func (r *ProductRepository) Delete(ctx context.Context, id int64) (models.DeleteResponse, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return models.DeleteResponse{}, res.Error
	}
	return models.DeleteResponse{OK: res.RowsAffected == 1}, nil
}
