package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/middleware"
	"ppda-backend/internal/model"
	"ppda-backend/internal/notification"
	"ppda-backend/internal/repository"
	"ppda-backend/internal/websocket"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
	minPasswordLen  = 8
)

// --- DTOs ---

type RegisterRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id"`
	AgencyID   string `json:"agency_id"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	NationalID *string `json:"national_id"`
	AgencyID   *string `json:"agency_id"`
	AgencyName string  `json:"agency_name,omitempty"`
	Approved   bool    `json:"approved"`
	IsAdmin    bool    `json:"is_admin"`
}

type LoginResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// UserListResponse groups regular accounts for the admin validation screen.
type UserListResponse struct {
	Approved []UserResponse `json:"approved"`
	Pending  []UserResponse `json:"pending"`
}

// --- Interface ---

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (LoginResult, error)
	// Refresh rotates the refresh token and issues a new access token.
	Refresh(ctx context.Context, refreshToken string) (LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (UserResponse, error)

	ListUsers(ctx context.Context) (UserListResponse, error)
	// ApproveUser marks the account approved. A notification delivery failure
	// after commit is reported through the warning, not as an error.
	ApproveUser(ctx context.Context, adminID, id string) (warning string, err error)
	DeactivateUser(ctx context.Context, adminID, id string) error

	// CreateAdmin provisions an administrator account directly. Exposed only
	// on the unauthenticated dev bootstrap endpoint.
	CreateAdmin(ctx context.Context, req RegisterRequest) (UserResponse, error)
}

type userService struct {
	userRepo   repository.UserRepository
	agencyRepo repository.AgencyRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	notifier   notification.Sender
	hub        *websocket.Hub
	now        func() time.Time
}

func NewUserService(
	userRepo repository.UserRepository,
	agencyRepo repository.AgencyRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notification.Sender,
	hub *websocket.Hub,
) UserService {
	return &userService{
		userRepo:   userRepo,
		agencyRepo: agencyRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		notifier:   notifier,
		hub:        hub,
		now:        time.Now,
	}
}

// --- Registration and login ---

func (s *userService) Register(ctx context.Context, req RegisterRequest) (UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return UserResponse{}, apperror.Validation("invalid email address")
	}
	if len(req.Password) < minPasswordLen {
		return UserResponse{}, apperror.Validation("password must be at least %d characters", minPasswordLen)
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return UserResponse{}, apperror.Conflict("an account with this email already exists")
	}

	var nationalID *string
	if req.NationalID != "" {
		normalized, err := normalizeRUT(req.NationalID)
		if err != nil {
			return UserResponse{}, err
		}
		if _, err := s.userRepo.FindByNationalID(ctx, normalized); err == nil {
			return UserResponse{}, apperror.Conflict("an account with this RUT already exists")
		}
		nationalID = &normalized
	}

	var agencyID *uuid.UUID
	if req.AgencyID != "" {
		parsed, err := uuid.Parse(req.AgencyID)
		if err != nil {
			return UserResponse{}, apperror.Validation("invalid agency_id")
		}
		if _, err := s.agencyRepo.FindByID(ctx, parsed); err != nil {
			return UserResponse{}, apperror.NotFound("agency")
		}
		agencyID = &parsed
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, apperror.Internal("failed to hash password", err)
	}

	user := model.User{
		Email:      email,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Password:   string(hashed),
		NationalID: nationalID,
		AgencyID:   agencyID,
		Approved:   false,
		IsAdmin:    false,
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		return UserResponse{}, apperror.Internal("failed to create user", err)
	}

	return toUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, apperror.Validation("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return LoginResult{}, apperror.Validation("invalid email or password")
	}
	if !user.IsAdmin && !user.Approved {
		return LoginResult{}, apperror.PermissionDenied("account pending administrator approval")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	if refreshToken == "" {
		return LoginResult{}, apperror.Validation("refresh token is required")
	}

	stored, err := s.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return LoginResult{}, apperror.PermissionDenied("invalid refresh token")
	}
	if s.now().After(stored.ExpiresAt) {
		_ = s.userRepo.DeleteRefreshToken(ctx, refreshToken)
		return LoginResult{}, apperror.PermissionDenied("refresh token expired")
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return LoginResult{}, apperror.PermissionDenied("invalid refresh token")
	}
	if !user.IsAdmin && !user.Approved {
		return LoginResult{}, apperror.PermissionDenied("account pending administrator approval")
	}

	// Rotate: the presented token is consumed, a fresh one takes its place.
	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return LoginResult{}, apperror.Internal("failed to rotate refresh token", err)
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return apperror.Internal("failed to revoke refresh token", err)
	}
	return nil
}

func (s *userService) Me(ctx context.Context, userID string) (UserResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return UserResponse{}, apperror.Validation("invalid user id")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return UserResponse{}, apperror.NotFound("user")
	}
	return toUserResponse(*user), nil
}

// --- Admin account management ---

func (s *userService) ListUsers(ctx context.Context) (UserListResponse, error) {
	approved, pending, err := s.userRepo.ListNonAdmins(ctx)
	if err != nil {
		return UserListResponse{}, apperror.Internal("failed to list users", err)
	}

	result := UserListResponse{
		Approved: make([]UserResponse, 0, len(approved)),
		Pending:  make([]UserResponse, 0, len(pending)),
	}
	for _, u := range approved {
		result.Approved = append(result.Approved, toUserResponse(u))
	}
	for _, u := range pending {
		result.Pending = append(result.Pending, toUserResponse(u))
	}
	return result, nil
}

func (s *userService) ApproveUser(ctx context.Context, adminID, id string) (string, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return "", apperror.Validation("invalid user id")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", apperror.NotFound("user")
	}
	if user.IsAdmin {
		return "", apperror.Validation("administrator accounts do not require approval")
	}

	user.Approved = true
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.Update(txCtx, user); err != nil {
			return apperror.Internal("failed to approve user", err)
		}
		return s.writeAudit(txCtx, adminID, model.ActionApproveUser, user)
	})
	if err != nil {
		return "", err
	}

	s.hub.Notify(websocket.EventUserApproved, map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   user.Email,
	})

	var warning string
	if err := s.notifier.Send(ctx, user.Email, "Account approved",
		"Your account has been approved. You can now log in and submit compliance reports."); err != nil {
		warning = fmt.Sprintf("user approved, but the notification could not be delivered: %v", err)
	}
	return warning, nil
}

func (s *userService) DeactivateUser(ctx context.Context, adminID, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validation("invalid user id")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return apperror.NotFound("user")
	}
	if user.IsAdmin {
		return apperror.Validation("administrator accounts cannot be deactivated here")
	}

	user.Approved = false
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.Update(txCtx, user); err != nil {
			return apperror.Internal("failed to deactivate user", err)
		}
		// Revoke sessions so the account cannot silently refresh back in.
		if err := s.userRepo.DeleteRefreshTokensForUser(txCtx, userID); err != nil {
			return apperror.Internal("failed to revoke refresh tokens", err)
		}
		return s.writeAudit(txCtx, adminID, model.ActionDeactivateUser, user)
	})
}

func (s *userService) CreateAdmin(ctx context.Context, req RegisterRequest) (UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return UserResponse{}, apperror.Validation("invalid email address")
	}
	if len(req.Password) < minPasswordLen {
		return UserResponse{}, apperror.Validation("password must be at least %d characters", minPasswordLen)
	}
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return UserResponse{}, apperror.Conflict("an account with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, apperror.Internal("failed to hash password", err)
	}

	user := model.User{
		Email:     email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Password:  string(hashed),
		Approved:  true,
		IsAdmin:   true,
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		return UserResponse{}, apperror.Internal("failed to create admin", err)
	}
	return toUserResponse(user), nil
}

// --- Token helpers ---

func (s *userService) issueTokens(ctx context.Context, user *model.User) (LoginResult, error) {
	now := s.now()

	agencyID := ""
	if user.AgencyID != nil {
		agencyID = user.AgencyID.String()
	}
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"admin":    user.IsAdmin,
		"approved": user.Approved,
		"agency":   agencyID,
		"iat":      now.Unix(),
		"exp":      now.Add(accessTokenTTL).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.GetJWTSecret())
	if err != nil {
		return LoginResult{}, apperror.Internal("failed to sign access token", err)
	}

	refresh := model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(refreshTokenTTL),
	}
	if err := s.userRepo.SaveRefreshToken(ctx, &refresh); err != nil {
		return LoginResult{}, apperror.Internal("failed to save refresh token", err)
	}

	return LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		User:         toUserResponse(*user),
	}, nil
}

func (s *userService) writeAudit(ctx context.Context, adminID, action string, user *model.User) error {
	var actorID *uuid.UUID
	if parsed, err := uuid.Parse(adminID); err == nil {
		actorID = &parsed
	}

	entry := model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   user.ID.String(),
		EntityName: user.Email,
	}
	if err := s.auditRepo.Create(ctx, &entry); err != nil {
		return apperror.Internal("failed to write audit log", err)
	}
	return nil
}

// --- RUT handling ---

// normalizeRUT strips dots and hyphens from a Chilean RUT, uppercases the
// check digit and verifies it with the modulus 11 algorithm.
func normalizeRUT(raw string) (string, error) {
	cleaned := strings.ToUpper(strings.NewReplacer(".", "", "-", "", " ", "").Replace(raw))
	if len(cleaned) < 2 || len(cleaned) > 9 {
		return "", apperror.Validation("invalid RUT format")
	}

	body, dv := cleaned[:len(cleaned)-1], cleaned[len(cleaned)-1]
	sum := 0
	factor := 2
	for i := len(body) - 1; i >= 0; i-- {
		if body[i] < '0' || body[i] > '9' {
			return "", apperror.Validation("invalid RUT format")
		}
		sum += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}

	var expected byte
	switch rem := 11 - sum%11; rem {
	case 11:
		expected = '0'
	case 10:
		expected = 'K'
	default:
		expected = byte('0' + rem)
	}
	if dv != expected {
		return "", apperror.Validation("invalid RUT check digit")
	}
	return cleaned, nil
}

func toUserResponse(u model.User) UserResponse {
	resp := UserResponse{
		ID:         u.ID.String(),
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		NationalID: u.NationalID,
		Approved:   u.Approved,
		IsAdmin:    u.IsAdmin,
	}
	if u.AgencyID != nil {
		s := u.AgencyID.String()
		resp.AgencyID = &s
	}
	if u.Agency != nil {
		resp.AgencyName = u.Agency.Name
	}
	return resp
}
