package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dellswitch/switchctl/internal/auth"
)

func TestLoadRequiresSwitchCredentials(t *testing.T) {
	t.Setenv("SWITCH_USERNAME", "")
	t.Setenv("SWITCH_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaultsWhenOptionalVarsUnset(t *testing.T) {
	t.Setenv("SWITCH_USERNAME", "netops")
	t.Setenv("SWITCH_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "netops", cfg.SwitchUsername)
	assert.Equal(t, "inventory.yaml", cfg.InventorySeedPath)
	assert.True(t, cfg.CookieSecure)
	assert.False(t, cfg.Directory.Enabled)
	assert.Equal(t, 8, cfg.GovernorLimits.PerSwitchSlots)
}

func TestLoadOverridesGovernorLimitsFromEnv(t *testing.T) {
	t.Setenv("SWITCH_USERNAME", "netops")
	t.Setenv("SWITCH_SECRET", "s3cret")
	t.Setenv("GOVERNOR_PER_SWITCH_SLOTS", "3")
	t.Setenv("GOVERNOR_GLOBAL_SLOTS", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.GovernorLimits.PerSwitchSlots)
	assert.Equal(t, 12, cfg.GovernorLimits.GlobalSlots)
}

func TestLoadFallsBackOnUnparsableIntOverride(t *testing.T) {
	t.Setenv("SWITCH_USERNAME", "netops")
	t.Setenv("SWITCH_SECRET", "s3cret")
	t.Setenv("GOVERNOR_PER_SWITCH_SLOTS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.GovernorLimits.PerSwitchSlots)
}

func TestLoadCookieSecureDefaultsTrueUnlessExplicitlyFalse(t *testing.T) {
	t.Setenv("SWITCH_USERNAME", "netops")
	t.Setenv("SWITCH_SECRET", "s3cret")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadDirectoryConfigDisabledWithoutURL(t *testing.T) {
	t.Setenv("SWITCH_USERNAME", "netops")
	t.Setenv("SWITCH_SECRET", "s3cret")
	t.Setenv("DIRECTORY_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Directory.Enabled)
}

func TestLoadDirectoryConfigParsesGroupRoles(t *testing.T) {
	t.Setenv("SWITCH_USERNAME", "netops")
	t.Setenv("SWITCH_SECRET", "s3cret")
	t.Setenv("DIRECTORY_URL", "ldaps://dc.example.com")
	t.Setenv("DIRECTORY_GROUP_ROLES", "netadmins=net-admin,viewers=viewer")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Directory.Enabled)
	assert.Equal(t, auth.RoleNetAdmin, cfg.Directory.GroupRoles["netadmins"])
	assert.Equal(t, auth.RoleViewer, cfg.Directory.GroupRoles["viewers"])
}

func TestLoadDirectoryConfigRejectsMalformedGroupRoleEntry(t *testing.T) {
	t.Setenv("SWITCH_USERNAME", "netops")
	t.Setenv("SWITCH_SECRET", "s3cret")
	t.Setenv("DIRECTORY_URL", "ldaps://dc.example.com")
	t.Setenv("DIRECTORY_GROUP_ROLES", "no-equals-sign-here")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDirectoryConfigRejectsUnknownDefaultRole(t *testing.T) {
	t.Setenv("SWITCH_USERNAME", "netops")
	t.Setenv("SWITCH_SECRET", "s3cret")
	t.Setenv("DIRECTORY_URL", "ldaps://dc.example.com")
	t.Setenv("DIRECTORY_DEFAULT_ROLE", "super-user")

	_, err := Load()
	require.Error(t, err)
}
