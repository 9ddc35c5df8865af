package firebase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitFirebaseRequiresCredentials(t *testing.T) {
	_, err := InitFirebase(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = InitFirebase(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
