package middleware

import (
	"context"
	"fmt"

	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/models"
)

// IDTokenVerifier checks a Firebase ID token and returns its UID.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (string, error)
}

// UserByFirebaseUID resolves a Firebase UID to a local user.
type UserByFirebaseUID interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// FirebaseVerifier accepts Firebase ID tokens of users known locally.
type FirebaseVerifier struct {
	tokens IDTokenVerifier
	users  UserByFirebaseUID
}

func NewFirebaseVerifier(tokens IDTokenVerifier, users UserByFirebaseUID) *FirebaseVerifier {
	return &FirebaseVerifier{tokens: tokens, users: users}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (identity.Principal, error) {
	uid, err := v.tokens.VerifyIDToken(ctx, idToken)
	if err != nil {
		return identity.Anonymous, fmt.Errorf("verify firebase token: %w", err)
	}
	user, err := v.users.GetUserByFirebaseUID(ctx, uid)
	if err != nil {
		return identity.Anonymous, fmt.Errorf("resolve firebase user: %w", err)
	}
	return identity.User(user.ID), nil
}
