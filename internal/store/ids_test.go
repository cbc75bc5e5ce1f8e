package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUUID(t *testing.T) {
	assert.True(t, isUUID("7d444840-9dc0-11d1-b245-5ffdce74fad2"))
	for _, id := range []string{"", "nobody", "123", "7d444840-9dc0-11d1-b245"} {
		assert.False(t, isUUID(id), id)
	}
}

// A store with no pool proves malformed ids never reach the database.
func TestMalformedIDsReadAsNotFound(t *testing.T) {
	s := &PostgresStore{}
	ctx := context.Background()
	owner := "7d444840-9dc0-11d1-b245-5ffdce74fad2"

	user, err := s.GetUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)

	ok, err := s.MarkRead(ctx, "not-a-uuid", owner)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.DeleteNotification(ctx, "42", owner)
	require.NoError(t, err)
	assert.False(t, ok)
}
