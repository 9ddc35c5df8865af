package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/models"
)

// UserChecker reports whether a local user exists.
type UserChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// JWTVerifier accepts HS256 tokens carrying models.JwtCustomClaims.
type JWTVerifier struct {
	secret []byte
	users  UserChecker
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// WithUsers makes Verify reject tokens of users without a local row, so a
// validly signed token cannot create edges for a deleted or unknown user.
func (v *JWTVerifier) WithUsers(users UserChecker) *JWTVerifier {
	v.users = users
	return v
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (identity.Principal, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return identity.Anonymous, err
	}
	if !token.Valid || claims.UserID == 0 {
		return identity.Anonymous, errors.New("invalid token")
	}
	if v.users != nil {
		ok, err := v.users.Exists(ctx, claims.UserID)
		if err != nil {
			return identity.Anonymous, fmt.Errorf("resolve token user: %w", err)
		}
		if !ok {
			return identity.Anonymous, fmt.Errorf("token user %d does not exist", claims.UserID)
		}
	}
	return identity.User(claims.UserID), nil
}

// Sign issues a token for userID. Used by the seed command and tests; real
// tokens come from the identity provider.
func (v *JWTVerifier) Sign(userID uint, email string, ttl time.Duration) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
