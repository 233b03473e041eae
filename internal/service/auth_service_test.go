package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

type fakeAuthRemote struct {
	user       models.User
	err        error
	registered []models.RegisterRequest
}

func (f *fakeAuthRemote) Login(_ context.Context, _ models.LoginRequest) (models.User, error) {
	return f.user, f.err
}

func (f *fakeAuthRemote) Register(_ context.Context, req models.RegisterRequest) (models.Ack, error) {
	f.registered = append(f.registered, req)
	return models.Ack{Message: "registered"}, f.err
}

type countingRecorder struct {
	events []string
}

func (c *countingRecorder) RecordSession(event, role string) {
	c.events = append(c.events, event+":"+role)
}

func newAuthServiceForTest(remote *fakeAuthRemote) (*AuthService, *repository.MemorySessionRepository, *countingRecorder) {
	store := repository.NewMemorySessionRepository()
	recorder := &countingRecorder{}
	svc := NewAuthService(remote, store, nil, nil, recorder, AuthConfig{Secret: "secret", Issuer: "test", Expiration: time.Hour})
	return svc, store, recorder
}

func TestLoginIssuesTokenForSession(t *testing.T) {
	year := 3
	remote := &fakeAuthRemote{user: models.User{ID: 101, Username: "mock_student", Role: models.RoleStudent, Year: &year}}
	svc, _, recorder := newAuthServiceForTest(remote)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "mock_student", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, int64(101), resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.SessionID)
	assert.Equal(t, models.RoleStudent, claims.Role)

	sess, err := svc.Session(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, "mock_student", sess.User.Username)
	assert.Equal(t, []string{"login:student"}, recorder.events)

	require.NoError(t, svc.Logout(context.Background(), sess))
	_, err = svc.Session(context.Background(), claims)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSessionNotFound))
}

func TestLoginValidationAndUpstreamErrors(t *testing.T) {
	remote := &fakeAuthRemote{err: appErrors.Wrap(errors.New("401"), appErrors.ErrUpstreamClient.Code, 401, "Invalid credentials")}
	svc, _, _ := newAuthServiceForTest(remote)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "", Password: "pw"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "x", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, 401, appErrors.FromError(err).Status)
}

func TestLoginRejectsUnknownRole(t *testing.T) {
	remote := &fakeAuthRemote{user: models.User{ID: 7, Username: "admin", Role: "admin"}}
	svc, _, _ := newAuthServiceForTest(remote)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "pw"})
	assert.True(t, errors.Is(err, appErrors.ErrDataCorrupt))
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(&fakeAuthRemote{})

	claims := &models.JWTClaims{SessionID: "s", UserID: 1, Role: models.RoleTeacher}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(forged)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestSessionMustMatchClaims(t *testing.T) {
	svc, store, _ := newAuthServiceForTest(&fakeAuthRemote{})
	require.NoError(t, store.Save(context.Background(), models.Session{
		ID:        "abc",
		User:      models.User{ID: 1, Role: models.RoleTeacher},
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	_, err := svc.Session(context.Background(), &models.JWTClaims{SessionID: "abc", UserID: 2, Role: models.RoleTeacher})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestRegisterDropsYearForTeachers(t *testing.T) {
	remote := &fakeAuthRemote{}
	svc, _, _ := newAuthServiceForTest(remote)
	year := 2

	_, err := svc.Register(context.Background(), models.RegisterRequest{Username: "profA", Password: "secret1", Role: models.RoleTeacher, Year: &year})
	require.NoError(t, err)
	require.Len(t, remote.registered, 1)
	assert.Nil(t, remote.registered[0].Year)

	_, err = svc.Register(context.Background(), models.RegisterRequest{Username: "s1", Password: "secret1", Role: "admin"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Len(t, remote.registered, 1)
}
