package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"backend/internal/mailer"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const magicLinkTTL = 15 * time.Minute

// AuthContext carries the caller's resolved identity through the service layer.
// Region holds the regional-admin's assigned region name, otherwise the user's
// own region.
type AuthContext struct {
	UserID uuid.UUID
	Role   string
	Region string
}

// ScopedRegion returns the region filter the caller may apply: regional-admins
// are pinned to their own region regardless of what they request, other admin
// roles may narrow to any region.
func (a AuthContext) ScopedRegion(requested string) string {
	if a.Role == model.RoleRegionalAdmin {
		return a.Region
	}
	return requested
}

// IsAdmin reports whether the caller holds any administrative role.
func (a AuthContext) IsAdmin() bool {
	return a.Role == model.RoleAdmin || a.Role == model.RoleRegionalAdmin || a.Role == model.RoleSuperAdmin
}

// --- DTOs ---

type RegisterPasswordlessRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Region      string `json:"region" binding:"required"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

type MagicLinkRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Region string `json:"region" binding:"required"`
}

type VerifyMagicLinkRequest struct {
	Token string `json:"token" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Region   string `json:"region" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CheckUserRoleRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RegistrationInfo is one (region, role) registration of an email address.
type RegistrationInfo struct {
	Region string `json:"region"`
	Role   string `json:"role"`
}

// --- Interface ---

type AuthService interface {
	RegisterPasswordless(ctx context.Context, req RegisterPasswordlessRequest) (*UserResponse, error)
	RequestMagicLink(ctx context.Context, req MagicLinkRequest) error
	VerifyMagicLink(ctx context.Context, token string) (*UserResponse, string, error)
	Login(ctx context.Context, req LoginRequest) (*UserResponse, string, error)
	CheckUserRole(ctx context.Context, email string) ([]RegistrationInfo, error)
	Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	mail     mailer.Mailer
	hub      *websocket.Hub
}

func NewAuthService(userRepo repository.UserRepository, mail mailer.Mailer, hub *websocket.Hub) AuthService {
	return &authService{userRepo: userRepo, mail: mail, hub: hub}
}

var validRegions = map[string]bool{
	model.RegionNOLA:   true,
	model.RegionSOLA:   true,
	model.RegionMexico: true,
	model.RegionBrazil: true,
}

// signSessionToken issues the HS256 session JWT stored in the access cookie.
func signSessionToken(user *model.User) (string, error) {
	region := user.Region
	if user.Role == model.RoleRegionalAdmin && user.AdminRegion != nil {
		region = user.AdminRegion.Region
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    user.ID.String(),
		"role":   user.Role,
		"region": region,
		"exp":    time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return "", errors.New("failed to generate token")
	}
	return tokenString, nil
}

func appBaseURL() string {
	if url := os.Getenv("APP_URL"); url != "" {
		return url
	}
	return "http://localhost:5173"
}

func (s *authService) RegisterPasswordless(ctx context.Context, req RegisterPasswordlessRequest) (*UserResponse, error) {
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
		Role:        model.RoleUser,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Active:      true,
		Approved:    false,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	// Registration stands even when the welcome email cannot be delivered
	if err := s.mail.SendWelcome(ctx, user.Email, user.Name, user.Region); err != nil {
		log.Println("warning: welcome email failed:", err)
	}

	s.hub.BroadcastEvent(websocket.EventUserRegistered, map[string]string{
		"user_id": user.ID.String(),
		"name":    user.Name,
		"region":  user.Region,
	})

	return toUserResponse(user), nil
}

// RequestMagicLink issues a single-use sign-in token. It intentionally reports
// success for unknown or ineligible accounts so the endpoint cannot be used to
// probe which emails are registered.
func (s *authService) RequestMagicLink(ctx context.Context, req MagicLinkRequest) error {
	user, err := s.userRepo.GetByEmailAndRegion(ctx, req.Email, req.Region)
	if err != nil {
		return nil
	}
	if user.Role != model.RoleUser || !user.Approved || !user.Active {
		return nil
	}

	token := uuid.NewString()
	expiry := time.Now().Add(magicLinkTTL)
	user.LoginToken = &token
	user.LoginTokenExpiresAt = &expiry

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to issue sign-in token: %w", err)
	}

	link := fmt.Sprintf("%s/auth/verify?token=%s", appBaseURL(), token)
	if err := s.mail.SendMagicLink(ctx, user.Email, user.Name, user.Region, link); err != nil {
		return fmt.Errorf("failed to send sign-in email: %w", err)
	}

	return nil
}

// VerifyMagicLink consumes the token: it is cleared on first use.
func (s *authService) VerifyMagicLink(ctx context.Context, token string) (*UserResponse, string, error) {
	if token == "" {
		return nil, "", errors.New("invalid or expired sign-in link")
	}

	user, err := s.userRepo.GetByLoginToken(ctx, token)
	if err != nil {
		return nil, "", errors.New("invalid or expired sign-in link")
	}
	if user.LoginTokenExpiresAt == nil || time.Now().After(*user.LoginTokenExpiresAt) {
		return nil, "", errors.New("invalid or expired sign-in link")
	}
	if !user.Approved || !user.Active {
		return nil, "", errors.New("account is not approved for sign-in")
	}

	user.LoginToken = nil
	user.LoginTokenExpiresAt = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to consume sign-in token: %w", err)
	}

	signed, err := signSessionToken(user)
	if err != nil {
		return nil, "", err
	}

	return toUserResponse(user), signed, nil
}

// Login authenticates the password roles. Program participants sign in with
// magic links only.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*UserResponse, string, error) {
	user, err := s.userRepo.GetByEmailAndRegion(ctx, req.Email, req.Region)
	if err != nil {
		return nil, "", errors.New("invalid email or password")
	}

	if user.Role == model.RoleUser {
		return nil, "", errors.New("use the magic link sign-in for this account")
	}
	if !user.Approved || !user.Active {
		return nil, "", errors.New("account is not approved for sign-in")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, "", errors.New("invalid email or password")
	}

	// Reload with the admin region so the session carries the scope name
	full, err := s.userRepo.GetByID(ctx, user.ID)
	if err == nil {
		user = full
	}

	signed, err := signSessionToken(user)
	if err != nil {
		return nil, "", err
	}

	return toUserResponse(user), signed, nil
}

// CheckUserRole tells the client which sign-in flow applies per registration.
func (s *authService) CheckUserRole(ctx context.Context, email string) ([]RegistrationInfo, error) {
	users, err := s.userRepo.GetAllByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up registrations: %w", err)
	}

	infos := make([]RegistrationInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, RegistrationInfo{Region: u.Region, Role: u.Role})
	}
	return infos, nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return toUserResponse(user), nil
}
