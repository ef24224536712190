package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Name          string  `json:"name" binding:"required"`
	Email         string  `json:"email" binding:"required,email"`
	Region        string  `json:"region" binding:"required"`
	Role          string  `json:"role" binding:"required,oneof=user admin regional-admin super-admin"`
	Password      string  `json:"password"`
	Category      string  `json:"category"`
	Subcategory   string  `json:"subcategory"`
	AdminRegionID *string `json:"admin_region_id"`
}

type UpdateUserRequest struct {
	Name          *string `json:"name"`
	Role          *string `json:"role"`
	Category      *string `json:"category"`
	Subcategory   *string `json:"subcategory"`
	Active        *bool   `json:"active"`
	AdminRegionID *string `json:"admin_region_id"`
}

// UserResponse returns a User without exposing credentials or tokens
type UserResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Region        string     `json:"region"`
	Role          string     `json:"role"`
	Category      string     `json:"category"`
	Subcategory   string     `json:"subcategory"`
	Active        bool       `json:"active"`
	Approved      bool       `json:"approved"`
	AdminRegionID *uuid.UUID `json:"admin_region_id,omitempty"`
	AdminRegion   string     `json:"admin_region,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserService defines admin-side user management
type UserService interface {
	CreateUser(ctx context.Context, actor AuthContext, req CreateUserRequest) (*UserResponse, error)
	GetUser(ctx context.Context, actor AuthContext, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, actor AuthContext, region, role, search string, approved *bool, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actor AuthContext, id string, req UpdateUserRequest) (*UserResponse, error)
	ApproveUser(ctx context.Context, actor AuthContext, id string) (*UserResponse, error)
	RejectUser(ctx context.Context, actor AuthContext, id string) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor AuthContext, id string) error
}

type userService struct {
	userRepo   repository.UserRepository
	regionRepo repository.RegionConfigRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

// NewUserService returns a new instance of UserService
func NewUserService(userRepo repository.UserRepository, regionRepo repository.RegionConfigRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) UserService {
	return &userService{userRepo: userRepo, regionRepo: regionRepo, auditRepo: auditRepo, txManager: txManager}
}

func validateRole(role string) bool {
	return role == model.RoleUser || role == model.RoleAdmin ||
		role == model.RoleRegionalAdmin || role == model.RoleSuperAdmin
}

func toUserResponse(user *model.User) *UserResponse {
	res := &UserResponse{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Region:        user.Region,
		Role:          user.Role,
		Category:      user.Category,
		Subcategory:   user.Subcategory,
		Active:        user.Active,
		Approved:      user.Approved,
		AdminRegionID: user.AdminRegionID,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
	if user.AdminRegion != nil {
		res.AdminRegion = user.AdminRegion.Region
	}
	return res
}

// requireRegionScope rejects regional-admins acting outside their region.
func requireRegionScope(actor AuthContext, region string) error {
	if actor.Role == model.RoleRegionalAdmin && region != actor.Region {
		return errors.New("access denied: user belongs to another region")
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, actor AuthContext, req CreateUserRequest) (*UserResponse, error) {
	if !validateRole(req.Role) {
		return nil, errors.New("invalid role: must be user, admin, regional-admin or super-admin")
	}
	if !validRegions[req.Region] {
		return nil, errors.New("invalid region: must be NOLA, SOLA, MEXICO or BRAZIL")
	}

	if _, err := s.userRepo.GetByEmailAndRegion(ctx, req.Email, req.Region); err == nil {
		return nil, errors.New("an account with this email already exists in this region")
	}

	user := &model.User{
		Name:        req.Name,
		Email:       req.Email,
		Region:      req.Region,
		Role:        req.Role,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Active:      true,
		Approved:    true, // admin-created accounts skip the review queue
	}

	if req.Role != model.RoleUser {
		if len(req.Password) < 8 {
			return nil, errors.New("administrative accounts require a password of at least 8 characters")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.New("failed to hash password")
		}
		user.Password = string(hashed)
	}

	if req.Role == model.RoleRegionalAdmin {
		if req.AdminRegionID == nil {
			return nil, errors.New("admin_region_id is required for regional-admin accounts")
		}
		regionID, err := uuid.Parse(*req.AdminRegionID)
		if err != nil {
			return nil, errors.New("invalid admin_region_id")
		}
		if _, err := s.regionRepo.FindByID(ctx, regionID); err != nil {
			return nil, errors.New("admin_region_id does not reference an existing region configuration")
		}
		user.AdminRegionID = &regionID
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	created, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return toUserResponse(user), nil
	}
	return toUserResponse(created), nil
}

func (s *userService) GetUser(ctx context.Context, actor AuthContext, id string) (*UserResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid user ID")
	}
	user, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if err := requireRegionScope(actor, user.Region); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, actor AuthContext, region, role, search string, approved *bool, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, actor.ScopedRegion(region), role, search, approved, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *toUserResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor AuthContext, id string, req UpdateUserRequest) (*UserResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid user ID")
	}

	user, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if err := requireRegionScope(actor, user.Region); err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, errors.New("name cannot be empty")
		}
		user.Name = *req.Name
	}
	if req.Role != nil {
		if !validateRole(*req.Role) {
			return nil, errors.New("invalid role: must be user, admin, regional-admin or super-admin")
		}
		user.Role = *req.Role
	}
	if req.Category != nil {
		user.Category = *req.Category
	}
	if req.Subcategory != nil {
		user.Subcategory = *req.Subcategory
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.AdminRegionID != nil {
		if *req.AdminRegionID == "" {
			user.AdminRegionID = nil
			user.AdminRegion = nil
		} else {
			regionID, err := uuid.Parse(*req.AdminRegionID)
			if err != nil {
				return nil, errors.New("invalid admin_region_id")
			}
			if _, err := s.regionRepo.FindByID(ctx, regionID); err != nil {
				return nil, errors.New("admin_region_id does not reference an existing region configuration")
			}
			user.AdminRegionID = &regionID
		}
	}

	if user.Role == model.RoleRegionalAdmin && user.AdminRegionID == nil {
		return nil, errors.New("admin_region_id is required for regional-admin accounts")
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	updated, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		return toUserResponse(user), nil
	}
	return toUserResponse(updated), nil
}

func (s *userService) ApproveUser(ctx context.Context, actor AuthContext, id string) (*UserResponse, error) {
	return s.reviewUser(ctx, actor, id, true)
}

// RejectUser keeps the account row but locks it out of sign-in.
func (s *userService) RejectUser(ctx context.Context, actor AuthContext, id string) (*UserResponse, error) {
	return s.reviewUser(ctx, actor, id, false)
}

func (s *userService) reviewUser(ctx context.Context, actor AuthContext, id string, approve bool) (*UserResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid user ID")
	}

	var user *model.User
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, err = s.userRepo.GetByID(txCtx, uid)
		if err != nil {
			return errors.New("user not found")
		}
		if err := requireRegionScope(actor, user.Region); err != nil {
			return err
		}

		action := model.ActionApproveUser
		if approve {
			user.Approved = true
			user.Active = true
		} else {
			user.Approved = false
			user.Active = false
			action = model.ActionRejectUser
		}

		if err := s.userRepo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"email":  user.Email,
			"region": user.Region,
		})
		audit := &model.AuditLog{
			UserID:     &actor.UserID,
			Action:     action,
			EntityID:   user.ID.String(),
			EntityName: user.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return toUserResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actor AuthContext, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid user ID")
	}
	user, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		return errors.New("user not found")
	}
	if err := requireRegionScope(actor, user.Region); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, uid)
}
