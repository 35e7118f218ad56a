package main

import (
	"context"
	"log"
	"os"

	"github.com/Baaaki/storefront/internal/apperror"
	"github.com/Baaaki/storefront/internal/config"
	"github.com/Baaaki/storefront/internal/database"
	"github.com/Baaaki/storefront/internal/models"
	"github.com/Baaaki/storefront/internal/repository"
	"github.com/Baaaki/storefront/internal/utils"
	"github.com/Baaaki/storefront/pkg/logger"
	"go.uber.org/zap"
)

var catalogue = []models.CreateProduct{
	{Name: "Desk Lamp", Price: price(24.99), Category: "home"},
	{Name: "Wool Rug", Price: price(89.5), Category: "home"},
	{Name: "Fountain Pen", Price: price(12.75), Category: "office"},
	{Name: "Notebook", Price: price(4.2), Category: "office"},
	{Name: "Trail Shoes", Price: price(110), Category: "outdoor"},
	{Name: "Water Bottle", Price: price(15), Category: "outdoor"},
}

func price(v float64) *float64 { return &v }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Database connection failed", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Database migration failed", zap.Error(err))
	}

	ctx := context.Background()
	hasher := utils.NewPasswordHasher(cfg.PasswordPepper, cfg.SaltRounds)

	if err := seedAdmin(ctx, repository.NewUserRepository(db, hasher)); err != nil {
		logger.Log.Fatal("Failed to seed admin user", zap.Error(err))
	}
	if err := seedProducts(ctx, repository.NewProductRepository(db)); err != nil {
		logger.Log.Fatal("Failed to seed products", zap.Error(err))
	}
}

func seedAdmin(ctx context.Context, users *repository.UserRepository) error {
	in := models.CreateUser{
		Firstname: getEnv("ADMIN_FIRSTNAME", "Store"),
		Lastname:  getEnv("ADMIN_LASTNAME", "Admin"),
		Username:  os.Getenv("ADMIN_USERNAME"),
		Password:  os.Getenv("ADMIN_PASSWORD"),
	}
	if in.Username == "" || in.Password == "" {
		logger.Log.Warn("ADMIN_USERNAME or ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}

	existing, err := users.ShowByUsername(ctx, in.Username)
	if err == nil {
		logger.Log.Info("Admin user already exists", zap.Int64("user_id", existing.ID))
		return nil
	}
	if apperror.KindOf(err) != apperror.KindNotFound {
		return err
	}

	user, err := users.Create(ctx, in)
	if err != nil {
		return err
	}
	logger.Log.Info("Admin user created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

func seedProducts(ctx context.Context, products *repository.ProductRepository) error {
	existing, err := products.Index(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Log.Info("Products already seeded", zap.Int("count", len(existing)))
		return nil
	}

	for _, p := range catalogue {
		if _, err := products.Create(ctx, p); err != nil {
			return err
		}
	}
	logger.Log.Info("Products seeded", zap.Int("count", len(catalogue)))
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
