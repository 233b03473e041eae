package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/validation"
)

type authRemote interface {
	Login(ctx context.Context, req models.LoginRequest) (models.User, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.Ack, error)
}

type sessionStore interface {
	Save(ctx context.Context, sess models.Session) error
	Find(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionRecorder interface {
	RecordSession(event, role string)
}

// AuthConfig defines configuration for gateway access tokens.
type AuthConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// AuthService owns gateway sessions. Credentials are checked by the grade service only.
type AuthService struct {
	remote    authRemote
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	metrics   sessionRecorder
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(remote authRemote, sessions sessionStore, validate *validator.Validate, logger *zap.Logger, metrics sessionRecorder, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.Validate
	}
	if config.Expiration <= 0 {
		config.Expiration = 12 * time.Hour
	}
	return &AuthService{
		remote:    remote,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		config:    config,
		now:       time.Now,
	}
}

// Login forwards the credentials, opens a session and issues an access token for it.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Wrap(err, "invalid login payload")
	}

	user, err := s.remote.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if !user.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrDataCorrupt, fmt.Sprintf("grade service returned unknown role %q", user.Role))
	}

	issuedAt := s.now().UTC()
	sess := models.Session{
		ID:        uuid.NewString(),
		User:      user,
		CreatedAt: issuedAt,
		ExpiresAt: issuedAt.Add(s.config.Expiration),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store session")
	}

	token, err := s.generateAccessToken(sess)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	if s.metrics != nil {
		s.metrics.RecordSession("login", string(user.Role))
	}
	s.logger.Info("session opened",
		zap.String("session_id", sess.ID),
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Expiration.Seconds()),
		User:        user,
	}, nil
}

// Register creates an account on the grade service. Year is dropped for teachers.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (models.Ack, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Ack{}, validation.Wrap(err, "invalid registration payload")
	}
	if req.Role != models.RoleStudent {
		req.Year = nil
	}
	return s.remote.Register(ctx, req)
}

// Logout destroys the session. Unknown sessions are ignored.
func (s *AuthService) Logout(ctx context.Context, sess models.Session) error {
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	if s.metrics != nil {
		s.metrics.RecordSession("logout", string(sess.User.Role))
	}
	s.logger.Info("session closed", zap.String("session_id", sess.ID), zap.Int64("user_id", sess.User.ID))
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Session loads the live session named by the claims.
func (s *AuthService) Session(ctx context.Context, claims *models.JWTClaims) (models.Session, error) {
	if claims == nil {
		return models.Session{}, appErrors.ErrUnauthorized
	}
	sess, err := s.sessions.Find(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, appErrors.ErrSessionNotFound) {
			return models.Session{}, appErrors.Clone(appErrors.ErrSessionNotFound, "session expired or logged out")
		}
		return models.Session{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if sess.Expired(s.now()) {
		return models.Session{}, appErrors.Clone(appErrors.ErrSessionNotFound, "session expired or logged out")
	}
	if sess.User.ID != claims.UserID || sess.User.Role != claims.Role {
		return models.Session{}, appErrors.Clone(appErrors.ErrUnauthorized, "token does not match session")
	}
	return sess, nil
}

func (s *AuthService) generateAccessToken(sess models.Session) (string, error) {
	claims := &models.JWTClaims{
		SessionID: sess.ID,
		UserID:    sess.User.ID,
		Username:  sess.User.Username,
		Role:      sess.User.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   fmt.Sprintf("%d", sess.User.ID),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			NotBefore: jwt.NewNumericDate(sess.CreatedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}
