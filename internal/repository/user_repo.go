package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines data access for User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmailAndRegion(ctx context.Context, email, region string) (*model.User, error)
	GetAllByEmail(ctx context.Context, email string) ([]model.User, error)
	GetByLoginToken(ctx context.Context, token string) (*model.User, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context, region, role, search string, approved *bool, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("AdminRegion").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmailAndRegion(ctx context.Context, email, region string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ? AND region = ?", email, region).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAllByEmail returns every regional registration of one email address.
func (r *userRepository) GetAllByEmail(ctx context.Context, email string) ([]model.User, error) {
	var users []model.User
	if err := GetDB(ctx, r.db).Where("email = ?", email).Order("region ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) GetByLoginToken(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "login_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// LockByID takes a row lock on the user, serializing concurrent balance
// checks for that user. Only meaningful inside RunInTx.
func (r *userRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, region, role, search string, approved *bool, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if region != "" {
			q = q.Where("region = ?", region)
		}
		if role != "" {
			q = q.Where("role = ?", role)
		}
		if approved != nil {
			q = q.Where("approved = ?", *approved)
		}
		if search != "" {
			q = q.Where("name ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%")
		}
		return q
	}

	if err := apply(db.Model(&model.User{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := apply(db.Preload("AdminRegion")).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.User{}).Error
}
