package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// DirectoryConfig configures the directory bind step of principal
// resolution: a search for the user's entry, a simple bind as that entry's
// DN, then the entry's group attribute mapped to a Role via GroupRoles.
// Membership in more than one mapped group picks the highest role (Highest).
type DirectoryConfig struct {
	URL            string // e.g. "ldaps://directory.example.net:636"
	BaseDN         string
	UserFilter     string // e.g. "(sAMAccountName=%s)"
	GroupAttribute string // attribute on the user entry listing group DNs, e.g. "memberOf"
	GroupRoles     map[string]Role
	DefaultRole    Role // used when no configured group matches; "" means deny
}

// DirectoryResolver binds a (username, password) pair against a directory
// server and maps the resulting group membership to a Role.
type DirectoryResolver struct {
	cfg  DirectoryConfig
	dial func(url string) (ldapConn, error)
}

type ldapConn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// NewDirectoryResolver constructs a resolver against cfg using a real LDAP
// dial function.
func NewDirectoryResolver(cfg DirectoryConfig) *DirectoryResolver {
	return &DirectoryResolver{
		cfg: cfg,
		dial: func(url string) (ldapConn, error) {
			return ldap.DialURL(url)
		},
	}
}

// Bind authenticates username/password against the directory and returns
// the highest role implied by the user's group membership. It never
// retains the password beyond the bind call.
func (d *DirectoryResolver) Bind(_ context.Context, username, password string) (Role, error) {
	if d.cfg.URL == "" {
		return "", errors.New("directory not configured")
	}
	conn, err := d.dial(d.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("directory dial: %w", err)
	}
	defer conn.Close()

	filter := fmt.Sprintf(d.cfg.UserFilter, ldap.EscapeFilter(username))
	searchReq := ldap.NewSearchRequest(
		d.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{d.cfg.GroupAttribute},
		nil,
	)
	result, err := conn.Search(searchReq)
	if err != nil {
		return "", fmt.Errorf("directory search: %w", err)
	}
	if len(result.Entries) != 1 {
		return "", fmt.Errorf("directory: expected exactly one entry for %q, got %d", username, len(result.Entries))
	}
	entry := result.Entries[0]

	if err := conn.Bind(entry.DN, password); err != nil {
		return "", fmt.Errorf("directory bind: %w", err)
	}

	var role Role
	hasRole := false
	for _, groupDN := range entry.GetAttributeValues(d.cfg.GroupAttribute) {
		mapped, ok := d.cfg.GroupRoles[normalizeGroupDN(groupDN)]
		if !ok {
			continue
		}
		if !hasRole {
			role, hasRole = mapped, true
			continue
		}
		role = Highest(role, mapped)
	}
	if !hasRole && d.cfg.DefaultRole != "" {
		role, hasRole = d.cfg.DefaultRole, true
	}
	if !hasRole {
		return "", fmt.Errorf("directory: %q has no role-mapped group membership", username)
	}
	return role, nil
}

// normalizeGroupDN lowercases a group DN for case-insensitive map lookup,
// matching directory servers' case-insensitive DN comparison.
func normalizeGroupDN(dn string) string {
	return strings.ToLower(strings.TrimSpace(dn))
}
