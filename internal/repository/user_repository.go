package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/storefront/internal/apperror"
	"github.com/Baaaki/storefront/internal/models"
	"github.com/Baaaki/storefront/internal/utils"
	"github.com/Baaaki/storefront/internal/validation"
	"github.com/Baaaki/storefront/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errUsernameTaken = apperror.Conflict("Username already exists.")

type UserRepository struct {
	db     *gorm.DB
	hasher utils.PasswordHasher
}

func NewUserRepository(db *gorm.DB, hasher utils.PasswordHasher) *UserRepository {
	return &UserRepository{db: db, hasher: hasher}
}

func (r *UserRepository) Index(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Show(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Can't find user with id %d.", id)
		}
		return nil, err
	}
	return &user, nil
}

// ShowByUsername looks the user up with a case-insensitive exact match.
func (r *UserRepository) ShowByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := r.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("Can't find user with username %q.", username)
	}
	return user, nil
}

func (r *UserRepository) findByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, in models.CreateUser) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	// Advisory only; the unique index on LOWER(username) is the real guard.
	existing, err := r.findByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Log.Warn("Username already exists", zap.String("username", in.Username))
		return nil, errUsernameTaken
	}

	hash, err := r.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Firstname: in.Firstname,
		Lastname:  in.Lastname,
		Username:  in.Username,
		Password:  hash,
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errUsernameTaken
		}
		logger.Log.Error("Failed to create user", zap.String("username", in.Username), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("User created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Update changes only the fields present in in.
func (r *UserRepository) Update(ctx context.Context, id int64, in models.UpdateUser) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if in.Username != nil {
		existing, err := r.findByUsername(ctx, *in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, errUsernameTaken
		}
	}

	var fields []Field
	if in.Firstname != nil {
		fields = append(fields, Field{Column: "firstname", Value: *in.Firstname})
	}
	if in.Lastname != nil {
		fields = append(fields, Field{Column: "lastname", Value: *in.Lastname})
	}
	if in.Username != nil {
		fields = append(fields, Field{Column: "username", Value: *in.Username})
	}
	if in.Password != nil {
		hash, err := r.hasher.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Column: "password", Value: hash})
	}

	q, err := BuildUpdateQuery("users", fields, id)
	if err != nil {
		return nil, err
	}

	var user models.User
	res := r.db.WithContext(ctx).Raw(q.SQL, q.Args...).Scan(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, errUsernameTaken
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("Can't find user with id %d.", id)
	}

	logger.Log.Info("User updated", zap.Int64("user_id", id), zap.Int("fields", len(fields)))
	return &user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) (models.DeleteResponse, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return models.DeleteResponse{}, res.Error
	}
	return models.DeleteResponse{OK: res.RowsAffected == 1}, nil
}
