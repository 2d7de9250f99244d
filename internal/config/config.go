// Package config loads the process-wide settings §6's "Environment
// inputs" section names from the environment, in the teacher's style of
// os.Getenv-with-defaults rather than a struct-tag binding library —
// there are few enough settings here that a binder would add a dependency
// without buying back much over a short, explicit loader.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dellswitch/switchctl/internal/auth"
	"github.com/dellswitch/switchctl/internal/governor"
	"github.com/dellswitch/switchctl/internal/hostload"
	"github.com/dellswitch/switchctl/internal/switchdriver"
	"github.com/dellswitch/switchctl/internal/utils"
)

// Config is everything cmd/switchctld needs to wire the process.
type Config struct {
	SwitchUsername string
	SwitchSecret   string

	InventorySeedPath string

	Directory DirectoryConfig

	GovernorLimits governor.Limits
	DialOpts       switchdriver.DialOptions

	HostLoadThresholds hostload.Thresholds

	IdleSessionTimeout time.Duration

	CookieSecure bool
}

// DirectoryConfig mirrors auth.DirectoryConfig but with the group-role map
// parsed from a flat env-var list rather than constructed in code.
type DirectoryConfig struct {
	Enabled        bool
	URL            string
	BaseDN         string
	UserFilter     string
	GroupAttribute string
	GroupRoles     map[string]auth.Role
	DefaultRole    auth.Role
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := utils.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// Load reads Config from the environment, applying the defaults §5/§6
// document wherever a variable is unset.
func Load() (Config, error) {
	limits := governor.DefaultLimits()
	limits.PerSwitchSlots = getenvInt("GOVERNOR_PER_SWITCH_SLOTS", limits.PerSwitchSlots)
	limits.PerSiteSlots = getenvInt("GOVERNOR_PER_SITE_SLOTS", limits.PerSiteSlots)
	limits.GlobalSlots = getenvInt("GOVERNOR_GLOBAL_SLOTS", limits.GlobalSlots)
	limits.CommandsPerSecond = getenvInt("GOVERNOR_COMMANDS_PER_SECOND", limits.CommandsPerSecond)
	limits.AdmissionDeadline = getenvDuration("GOVERNOR_ADMISSION_DEADLINE", limits.AdmissionDeadline)

	thresholds := hostload.DefaultThresholds()
	thresholds.YellowAt = getenvFloat("HOSTLOAD_YELLOW_AT", thresholds.YellowAt)
	thresholds.RedAt = getenvFloat("HOSTLOAD_RED_AT", thresholds.RedAt)
	thresholds.SampleEvery = getenvDuration("HOSTLOAD_SAMPLE_EVERY", thresholds.SampleEvery)

	dirCfg, err := loadDirectoryConfig()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		SwitchUsername: os.Getenv("SWITCH_USERNAME"),
		SwitchSecret:   os.Getenv("SWITCH_SECRET"),

		InventorySeedPath: getenv("INVENTORY_SEED_PATH", "inventory.yaml"),

		Directory: dirCfg,

		GovernorLimits: limits,
		DialOpts: switchdriver.DialOptions{
			HandshakeTimeout: getenvDuration("SWITCH_HANDSHAKE_TIMEOUT", 0),
			CommandTimeout:   getenvDuration("SWITCH_COMMAND_TIMEOUT", 0),
			SessionTimeout:   getenvDuration("SWITCH_SESSION_TIMEOUT", 0),
		},

		HostLoadThresholds: thresholds,

		IdleSessionTimeout: getenvDuration("SESSION_IDLE_TIMEOUT", 5*time.Minute),

		CookieSecure: getenv("COOKIE_SECURE", "true") != "false",
	}

	if cfg.SwitchUsername == "" || cfg.SwitchSecret == "" {
		return Config{}, fmt.Errorf("config: SWITCH_USERNAME and SWITCH_SECRET are required")
	}

	return cfg, nil
}

// loadDirectoryConfig builds DirectoryConfig from the directory env vars.
// Directory auth is optional: if DIRECTORY_URL is unset, local accounts are
// the only principal source and Enabled is false.
func loadDirectoryConfig() (DirectoryConfig, error) {
	url := os.Getenv("DIRECTORY_URL")
	if url == "" {
		return DirectoryConfig{}, nil
	}

	groupRoles, err := parseGroupRoles(os.Getenv("DIRECTORY_GROUP_ROLES"))
	if err != nil {
		return DirectoryConfig{}, err
	}

	var defaultRole auth.Role
	if raw := os.Getenv("DIRECTORY_DEFAULT_ROLE"); raw != "" {
		role, ok := parseRole(raw)
		if !ok {
			return DirectoryConfig{}, fmt.Errorf("config: DIRECTORY_DEFAULT_ROLE %q is not a valid role", raw)
		}
		defaultRole = role
	}

	return DirectoryConfig{
		Enabled:        true,
		URL:            url,
		BaseDN:         os.Getenv("DIRECTORY_BASE_DN"),
		UserFilter:     getenv("DIRECTORY_USER_FILTER", "(sAMAccountName=%s)"),
		GroupAttribute: getenv("DIRECTORY_GROUP_ATTRIBUTE", "memberOf"),
		GroupRoles:     groupRoles,
		DefaultRole:    defaultRole,
	}, nil
}

// parseGroupRoles parses a "dn1=role1,dn2=role2" list into a group→Role
// map, the flat shape an env var can carry for auth.DirectoryConfig's
// GroupRoles field.
func parseGroupRoles(raw string) (map[string]auth.Role, error) {
	out := map[string]auth.Role{}
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("config: malformed DIRECTORY_GROUP_ROLES entry %q", pair)
		}
		dn := strings.TrimSpace(kv[0])
		role, ok := parseRole(strings.TrimSpace(kv[1]))
		if !ok {
			return nil, fmt.Errorf("config: %q is not a valid role", kv[1])
		}
		out[dn] = role
	}
	return out, nil
}

func parseRole(s string) (auth.Role, bool) {
	switch strings.ToLower(s) {
	case "viewer":
		return auth.RoleViewer, true
	case "net-admin", "netadmin":
		return auth.RoleNetAdmin, true
	case "super-admin", "superadmin":
		return auth.RoleSuperAdmin, true
	default:
		return "", false
	}
}
