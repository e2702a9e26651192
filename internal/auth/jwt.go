// Package auth turns bearer tokens into verified users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 access tokens whose subject is the user ID.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (i *Issuer) Issue(userID string, ttl time.Duration) (string, error) {
	now := i.now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify returns the subject of a valid token.
func (i *Issuer) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("parse access token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid access token claims")
	}
	return claims.Subject, nil
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Resolver maps a bearer token to the persisted user it was issued for.
type Resolver struct {
	tokens *Issuer
	users  UserStore
}

func NewResolver(tokens *Issuer, users UserStore) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, apperrors.Unauthenticated("missing bearer token")
	}
	userID, err := r.tokens.Verify(token)
	if err != nil {
		return domain.User{}, apperrors.Unauthenticated("invalid or expired token")
	}
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.User{}, apperrors.Unauthenticated("unknown user")
		}
		return domain.User{}, err
	}
	return *user, nil
}
