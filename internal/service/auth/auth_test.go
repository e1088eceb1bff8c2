package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type rosterStub struct {
	active map[int64]bool
	err    error
}

func (r rosterStub) IsActiveManager(_ context.Context, userID int64) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	return r.active[userID], nil
}

func TestIsOperator(t *testing.T) {
	roster := rosterStub{active: map[int64]bool{300: true}}
	a := New(100, roster)
	ctx := context.Background()

	cases := []struct {
		name   string
		userID int64
		want   bool
	}{
		{"admin", 100, true},
		{"roster manager", 300, true},
		{"removed manager", 200, false},
		{"stranger", 400, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, a.IsOperator(ctx, tc.userID))
		})
	}
}

func TestOnlyAdminIsAdmin(t *testing.T) {
	a := New(100, rosterStub{})
	require.True(t, a.IsAdmin(100))
	require.False(t, a.IsAdmin(200))
	require.False(t, a.IsAdmin(0))
}

// Access lives in the roster alone, so deleting the row revokes the grant
// even for managers originally seeded from config.
func TestRevokedManagerLosesAccess(t *testing.T) {
	active := map[int64]bool{200: true}
	a := New(100, rosterStub{active: active})
	ctx := context.Background()

	require.True(t, a.IsOperator(ctx, 200))
	delete(active, 200)
	require.False(t, a.IsOperator(ctx, 200))
}

func TestRosterErrorDeniesAccess(t *testing.T) {
	a := New(100, rosterStub{err: errors.New("db locked")})
	require.False(t, a.IsOperator(context.Background(), 300))
	// The admin never depends on the roster.
	require.True(t, a.IsOperator(context.Background(), 100))
}

func TestNoAdminConfigured(t *testing.T) {
	a := New(0, rosterStub{})
	require.False(t, a.IsAdmin(0))
	require.False(t, a.IsOperator(context.Background(), 0))
}
