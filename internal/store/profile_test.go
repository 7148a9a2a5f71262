package store

import (
	"context"
	"testing"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/model"
	"github.com/stretchr/testify/require"
)

func TestProfile_FetchAndRename(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := signedIn(t)

	require.NoError(t, s.Profile.Fetch(ctx))
	p := s.Profile.State().Profile
	require.NotNil(t, p)
	require.Equal(t, "Ann", p.Name)
	require.Equal(t, model.RoleUser, p.Role)

	require.NoError(t, s.Profile.UpdateName(ctx, "Annie"))
	require.Equal(t, "Annie", s.Profile.State().Profile.Name)
	require.Equal(t, "Annie", s.Auth.State().Session.DisplayName)
}

func TestProfile_LocalChecks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, gw := signedIn(t)
	calls := gw.total()

	require.ErrorIs(t, s.Profile.UpdateName(ctx, ""), errs.ErrValidation)
	require.Equal(t, "All fields are required", s.Profile.State().Err)

	require.ErrorIs(t, s.Profile.ChangePassword(ctx, "secret1", ""), errs.ErrValidation)
	require.ErrorIs(t, s.Profile.ChangePassword(ctx, "secret1", "123"), errs.ErrWeakPassword)
	require.Equal(t, "Password must be at least 6 characters", s.Profile.State().Err)
	require.Equal(t, calls, gw.total())

	require.NoError(t, s.Profile.ChangePassword(ctx, "secret1", "secret2"))
	require.Empty(t, s.Profile.State().Err)
	require.Equal(t, 1, gw.count("ChangePassword"))
}

func TestProfile_NeedsSession(t *testing.T) {
	t.Parallel()
	s, gw := newTestStore(t)
	require.ErrorIs(t, s.Profile.Fetch(context.Background()), errs.ErrNotSignedIn)
	require.Equal(t, "User not authenticated", s.Profile.State().Err)
	require.Zero(t, gw.total())
}

func TestProfile_GatewayFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, gw := signedIn(t)
	require.NoError(t, s.Profile.Fetch(ctx))

	gw.failOn("UpdateProfile", errs.ErrUnavailable)
	require.ErrorIs(t, s.Profile.UpdateName(ctx, "Annie"), errs.ErrUnavailable)
	st := s.Profile.State()
	require.Equal(t, "Ann", st.Profile.Name)
	require.Equal(t, "Network error, please try again", st.Err)
	require.False(t, st.Loading)
	require.Equal(t, "Ann", s.Auth.State().Session.DisplayName)
}

func TestProfile_ErrorClearedOnlyBySameKind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, gw := signedIn(t)

	gw.failOn("UpdateProfile", errs.ErrUnavailable)
	require.Error(t, s.Profile.UpdateName(ctx, "Annie"))
	require.NoError(t, s.Profile.Fetch(ctx))
	require.Equal(t, "Network error, please try again", s.Profile.State().Err)

	require.ErrorIs(t, s.Profile.ChangePassword(ctx, "secret1", "123"), errs.ErrWeakPassword)
	require.NoError(t, s.Profile.Fetch(ctx))
	require.Equal(t, "Password must be at least 6 characters", s.Profile.State().Err)

	require.NoError(t, s.Profile.ChangePassword(ctx, "secret1", "secret2"))
	require.Empty(t, s.Profile.State().Err)
}

func TestProfile_BlankNameRejected(t *testing.T) {
	t.Parallel()
	s, gw := signedIn(t)
	calls := gw.total()

	require.ErrorIs(t, s.Profile.UpdateName(context.Background(), "  \t"), errs.ErrValidation)
	require.Equal(t, calls, gw.total())
}
