package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/systmms/hemli/internal/errors"
	"github.com/systmms/hemli/internal/lifecycle"
	"github.com/systmms/hemli/internal/secret"
)

func TestNewGetRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     lifecycle.GetOptions
		wantMode lifecycle.RefreshMode
		wantSrc  *secret.Source
		wantErr  error
	}{
		{
			name:     "default",
			opts:     lifecycle.GetOptions{Namespace: "app", Name: "x"},
			wantMode: lifecycle.RefreshDefault,
		},
		{
			name:     "shell_source",
			opts:     lifecycle.GetOptions{Namespace: "app", Name: "x", SourceSh: str("echo hi | tr a-z A-Z")},
			wantMode: lifecycle.RefreshDefault,
			wantSrc:  &secret.Source{Command: "echo hi | tr a-z A-Z", Mode: secret.ModeShell},
		},
		{
			name:     "direct_source_with_force",
			opts:     lifecycle.GetOptions{Namespace: "app", Name: "x", SourceCmd: str("pass show db"), ForceRefresh: true},
			wantMode: lifecycle.ForceRefresh,
			wantSrc:  &secret.Source{Command: "pass show db", Mode: secret.ModeDirect},
		},
		{
			name:     "no_refresh",
			opts:     lifecycle.GetOptions{Namespace: "app", Name: "x", NoRefresh: true},
			wantMode: lifecycle.NoRefresh,
		},
		{
			name:     "no_store",
			opts:     lifecycle.GetOptions{Namespace: "app", Name: "x", NoStore: true},
			wantMode: lifecycle.NoStore,
		},
		{
			name:    "force_and_no_refresh",
			opts:    lifecycle.GetOptions{Namespace: "app", Name: "x", ForceRefresh: true, NoRefresh: true},
			wantErr: dserrors.ErrConflictingFlags,
		},
		{
			name:    "force_and_no_store",
			opts:    lifecycle.GetOptions{Namespace: "app", Name: "x", ForceRefresh: true, NoStore: true},
			wantErr: dserrors.ErrConflictingFlags,
		},
		{
			name:    "no_refresh_and_no_store",
			opts:    lifecycle.GetOptions{Namespace: "app", Name: "x", NoRefresh: true, NoStore: true},
			wantErr: dserrors.ErrConflictingFlags,
		},
		{
			name:    "both_sources",
			opts:    lifecycle.GetOptions{Namespace: "app", Name: "x", SourceSh: str("a"), SourceCmd: str("b")},
			wantErr: dserrors.ErrConflictingFlags,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, err := lifecycle.NewGetRequest(tt.opts)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, secret.ID{Namespace: "app", Name: "x"}, req.ID)
			assert.Equal(t, tt.wantMode, req.Mode)
			assert.Equal(t, tt.wantSrc, req.Source)
		})
	}
}

func TestConflictMessageNamesFlags(t *testing.T) {
	t.Parallel()

	_, err := lifecycle.NewGetRequest(lifecycle.GetOptions{Namespace: "app", Name: "x", ForceRefresh: true, NoRefresh: true, NoStore: true})
	require.Error(t, err)
	assert.Equal(t, "flags --force-refresh, --no-refresh, --no-store are mutually exclusive", err.Error())
}

func TestNewGetRequestRequiresIdentity(t *testing.T) {
	t.Parallel()

	_, err := lifecycle.NewGetRequest(lifecycle.GetOptions{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Namespace is required")

	_, err = lifecycle.NewGetRequest(lifecycle.GetOptions{Namespace: "app"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Secret name is required")
}

func TestNewEditRequest(t *testing.T) {
	t.Parallel()

	t.Run("nothing_to_change", func(t *testing.T) {
		t.Parallel()
		_, err := lifecycle.NewEditRequest(lifecycle.EditOptions{Namespace: "app", Name: "x"})
		require.Error(t, err)
		assert.ErrorIs(t, err, dserrors.ErrNoModification)
		assert.Contains(t, err.Error(), "no modifications specified")
	})

	t.Run("ttl_and_clear_ttl", func(t *testing.T) {
		t.Parallel()
		_, err := lifecycle.NewEditRequest(lifecycle.EditOptions{Namespace: "app", Name: "x", TTL: ttl(5), ClearTTL: true})
		assert.ErrorIs(t, err, dserrors.ErrConflictingFlags)
	})

	t.Run("both_sources", func(t *testing.T) {
		t.Parallel()
		_, err := lifecycle.NewEditRequest(lifecycle.EditOptions{Namespace: "app", Name: "x", SourceSh: str("a"), SourceCmd: str("b")})
		assert.ErrorIs(t, err, dserrors.ErrConflictingFlags)
	})

	t.Run("ttl_only", func(t *testing.T) {
		t.Parallel()
		req, err := lifecycle.NewEditRequest(lifecycle.EditOptions{Namespace: "app", Name: "x", TTL: ttl(0)})
		require.NoError(t, err)
		assert.Equal(t, lifecycle.SetTTL(0), req.TTL)
		assert.Nil(t, req.Source)
	})

	t.Run("clear_ttl_only", func(t *testing.T) {
		t.Parallel()
		req, err := lifecycle.NewEditRequest(lifecycle.EditOptions{Namespace: "app", Name: "x", ClearTTL: true})
		require.NoError(t, err)
		assert.Equal(t, lifecycle.ClearTTL(), req.TTL)
	})

	t.Run("source_only", func(t *testing.T) {
		t.Parallel()
		req, err := lifecycle.NewEditRequest(lifecycle.EditOptions{Namespace: "app", Name: "x", SourceSh: str("echo new")})
		require.NoError(t, err)
		assert.True(t, req.TTL.IsKeep())
		assert.Equal(t, &secret.Source{Command: "echo new", Mode: secret.ModeShell}, req.Source)
	})
}

func TestRequestsRejectUnrepresentableTTL(t *testing.T) {
	t.Parallel()

	tooLarge := secret.MaxTTL + 1

	_, err := lifecycle.NewGetRequest(lifecycle.GetOptions{Namespace: "app", Name: "x", TTL: ttl(tooLarge)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TTL of 9223372037 seconds is too large")

	_, err = lifecycle.NewEditRequest(lifecycle.EditOptions{Namespace: "app", Name: "x", TTL: ttl(1 << 63)})
	assert.ErrorContains(t, err, "is too large")

	_, err = lifecycle.NewPutRequest("app", "x", "v", ttl(tooLarge))
	assert.ErrorContains(t, err, "is too large")

	req, err := lifecycle.NewGetRequest(lifecycle.GetOptions{Namespace: "app", Name: "x", TTL: ttl(secret.MaxTTL)})
	require.NoError(t, err)
	assert.Equal(t, secret.MaxTTL, *req.TTL)
}

func TestRefreshModeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "default", lifecycle.RefreshDefault.String())
	assert.Equal(t, "force-refresh", lifecycle.ForceRefresh.String())
	assert.Equal(t, "no-refresh", lifecycle.NoRefresh.String())
	assert.Equal(t, "no-store", lifecycle.NoStore.String())
}
