package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	iss := NewIssuer("s3cret", "servicebooking")

	token, err := iss.Issue("u-1", time.Hour)
	require.NoError(t, err)

	sub, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", sub)
}

func TestIssuer_Verify_Rejects(t *testing.T) {
	iss := NewIssuer("s3cret", "servicebooking")
	expired, err := iss.Issue("u-1", -time.Minute)
	require.NoError(t, err)

	otherKey, err := NewIssuer("other", "servicebooking").Issue("u-1", time.Hour)
	require.NoError(t, err)

	otherIssuer, err := NewIssuer("s3cret", "someone-else").Issue("u-1", time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", Issuer: "servicebooking"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong key":    otherKey,
		"wrong issuer": otherIssuer,
		"alg none":     none,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := iss.Verify(token)
			assert.Error(t, err)
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	iss := NewIssuer("s3cret", "")
	users := &MockUserStore{}
	r := NewResolver(iss, users)
	ctx := context.Background()

	token, err := iss.Issue("u-1", time.Hour)
	require.NoError(t, err)

	users.On("GetByID", ctx, "u-1").Return(&domain.User{ID: "u-1", Role: domain.RoleClient}, nil).Once()

	u, err := r.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	users.AssertExpectations(t)
}

func TestResolver_Resolve_Failures(t *testing.T) {
	iss := NewIssuer("s3cret", "")
	ctx := context.Background()
	token, err := iss.Issue("u-gone", time.Hour)
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		_, err := NewResolver(iss, &MockUserStore{}).Resolve(ctx, "")
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := NewResolver(iss, &MockUserStore{}).Resolve(ctx, "abc")
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := &MockUserStore{}
		users.On("GetByID", ctx, "u-gone").Return(nil, apperrors.NotFound("user", "u-gone"))
		_, err := NewResolver(iss, users).Resolve(ctx, token)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("store failure", func(t *testing.T) {
		users := &MockUserStore{}
		boom := errors.New("db down")
		users.On("GetByID", ctx, "u-gone").Return(nil, boom)
		_, err := NewResolver(iss, users).Resolve(ctx, token)
		assert.ErrorIs(t, err, boom)
	})
}
