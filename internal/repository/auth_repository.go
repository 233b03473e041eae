package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/transport"
)

// AuthRepository forwards credentials to the grade service.
type AuthRepository struct {
	client dispatcher
}

// NewAuthRepository constructs an AuthRepository.
func NewAuthRepository(client dispatcher) *AuthRepository {
	return &AuthRepository{client: client}
}

// Login returns the identity behind the credentials.
func (r *AuthRepository) Login(ctx context.Context, req models.LoginRequest) (models.User, error) {
	resp, err := r.client.Send(ctx, transport.Request{Method: http.MethodPost, Path: "auth/login", Body: req})
	if err != nil {
		return models.User{}, upstreamError(err, "log in")
	}
	return models.DecodeUser(resp.Body)
}

// Register creates an account.
func (r *AuthRepository) Register(ctx context.Context, req models.RegisterRequest) (models.Ack, error) {
	resp, err := r.client.Send(ctx, transport.Request{Method: http.MethodPost, Path: "auth/register", Body: req})
	if err != nil {
		return models.Ack{}, upstreamError(err, "register")
	}
	return decodeAck(resp, "registered"), nil
}
