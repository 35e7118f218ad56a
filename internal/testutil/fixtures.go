package testutil

import (
	"testing"

	"github.com/Baaaki/storefront/internal/models"
	"github.com/Baaaki/storefront/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultPassword = "secretpw"

// Hasher is a fast password hasher for tests.
func Hasher() utils.PasswordHasher {
	return utils.NewPasswordHasher("test-pepper", bcrypt.MinCost)
}

// InsertUser writes a user row with a hashed DefaultPassword.
func InsertUser(t *testing.T, db *gorm.DB, firstname, lastname, username string) *models.User {
	t.Helper()

	hash, err := Hasher().HashPassword(DefaultPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Firstname: firstname,
		Lastname:  lastname,
		Username:  username,
		Password:  hash,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to insert user %s: %v", username, err)
	}
	return user
}

func InsertProduct(t *testing.T, db *gorm.DB, name string, price float64, category string) *models.Product {
	t.Helper()

	product := &models.Product{Name: name, Price: price, Category: category}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to insert product %s: %v", name, err)
	}
	return product
}

// InsertOrder writes an order with the given lines. A zero quantity becomes 1.
func InsertOrder(t *testing.T, db *gorm.DB, userID int64, state models.OrderState, lines ...models.OrderLine) *models.Order {
	t.Helper()

	order := &models.Order{UserID: userID, State: state}
	if err := db.Omit("User", "Lines").Create(order).Error; err != nil {
		t.Fatalf("Failed to insert order: %v", err)
	}
	for i := range lines {
		lines[i].OrderID = order.ID
		if lines[i].Quantity == 0 {
			lines[i].Quantity = 1
		}
	}
	if len(lines) > 0 {
		if err := db.Omit("Product").Create(&lines).Error; err != nil {
			t.Fatalf("Failed to insert order lines: %v", err)
		}
	}
	return order
}

// Line is shorthand for an order line fixture.
func Line(productID int64, quantity int) models.OrderLine {
	return models.OrderLine{ProductID: productID, Quantity: quantity}
}
