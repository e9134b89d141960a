package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"quartz-storefront/internal/core/auth"
	"quartz-storefront/internal/core/errs"
	"quartz-storefront/internal/domain"
	"quartz-storefront/pkg/utils"
	"quartz-storefront/pkg/validate"
)

const msgBadCredentials = "invalid email or password"

type AuthService struct {
	users domain.UserRepository
	jwt   *auth.JWTer
	log   *zap.Logger
}

func NewAuthService(users domain.UserRepository, jwt *auth.JWTer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, jwt: jwt, log: log}
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required,max=191"`
	Email    string `json:"email" binding:"required,email,max=191"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type PasswordInput struct {
	UserID          string `json:"userId" binding:"required"`
	CurrentPassword string `json:"currentPassword" binding:"required,max=72"`
	Password        string `json:"password" binding:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// AuthResult carries the issued token to the transport, which turns it into
// cookies. The token never goes into a response body.
type AuthResult struct {
	User  PublicUser `json:"user"`
	Token string     `json:"-"`
}

func publicUser(u *domain.User) PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *AuthService) storeErr(op string, err error, conflictMsg string) error {
	out := errs.FromStore(err, conflictMsg)
	if errs.Is(out, errs.UpstreamFailure) {
		s.log.Error("user store call failed", zap.String("op", op), zap.Error(err))
	}
	return out
}

// Login never says which half of the credentials was wrong.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.users.FindByEmail(ctx, normEmail(in.Email))
	if err != nil {
		return nil, s.storeErr("find user", err, "")
	}
	if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
		return nil, errs.New(errs.InvalidCredentials, msgBadCredentials)
	}
	return s.issue(u)
}

// Register creates a USER and logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	email := normEmail(in.Email)
	const taken = "user with this email already exists"
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.storeErr("find user", err, "")
	}
	if existing != nil {
		return nil, errs.ConflictMsg(taken)
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, errs.Wrap(errs.Unknown, "hash password", err)
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         auth.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, s.storeErr("create user", err, taken)
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *domain.User) (*AuthResult, error) {
	tok, err := s.jwt.Issue(u.ID, u.Role)
	if err != nil {
		return nil, errs.Wrap(errs.Unknown, "issue token", err)
	}
	return &AuthResult{User: publicUser(u), Token: tok}, nil
}

// Resolve verifies the token and loads the user it names. The session role is
// the stored one.
func (s *AuthService) Resolve(ctx context.Context, token string) (*auth.Session, error) {
	if token == "" {
		return nil, errs.Unauth("not authenticated")
	}
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidToken, "invalid or expired session", err)
	}
	u, err := s.users.FindByID(ctx, claims.UID)
	if err != nil {
		return nil, s.storeErr("find user", err, "")
	}
	if u == nil {
		return nil, errs.NotFoundf("user not found")
	}
	return &auth.Session{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, token string) (*PublicUser, error) {
	sess, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return &PublicUser{ID: sess.UserID, Email: sess.Email, Name: sess.Name, Role: sess.Role}, nil
}

// UpdatePassword is admin-only and limited to the caller's own account. The
// current password must verify.
func (s *AuthService) UpdatePassword(ctx context.Context, sess *auth.Session, in PasswordInput) error {
	if sess == nil {
		return errs.Unauth("not authenticated")
	}
	if !sess.IsAdmin() {
		return errs.Forbidden("admin access required")
	}
	if err := validate.Struct(in); err != nil {
		var e *errs.Error
		if errors.As(err, &e) && strings.HasPrefix(e.Msg, "confirmPassword") {
			return errs.Validation("passwords do not match")
		}
		return err
	}
	if in.UserID != sess.UserID {
		return errs.Forbidden("cannot change another user's password")
	}
	u, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return s.storeErr("find user", err, "")
	}
	if u == nil {
		return errs.NotFoundf("user not found")
	}
	if !utils.CheckPassword(in.CurrentPassword, u.PasswordHash) {
		return errs.New(errs.InvalidCredentials, "current password is incorrect")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return errs.Wrap(errs.Unknown, "hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return s.storeErr("update password", err, "")
	}
	s.log.Info("password changed", zap.String("user_id", u.ID))
	return nil
}
