// Package authtoken implements a flat bearer-token to namespace-permission
// policy map, grounded on original_source/auth.rs's NamespaceAuth.
package authtoken

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/synapseos/hybridstore/internal/jsonx"
	"github.com/synapseos/hybridstore/internal/synerr"
)

// Permission controls which operations a token may perform against a
// namespace it is authorized for.
type Permission struct {
	Read   bool
	Write  bool
	Delete bool
	Reason bool
}

// DefaultPermission grants every operation, matching the Rust
// NamespacePermission::default().
func DefaultPermission() Permission {
	return Permission{Read: true, Write: true, Delete: true, Reason: true}
}

type registration struct {
	patterns   []string
	permission Permission
}

// Auth is a namespace-scoped bearer-token access-control layer.
type Auth struct {
	mu                  sync.RWMutex
	tokens              map[string]registration
	AllowAnonymousDefault bool
}

// New creates an Auth with anonymous access to the "default" namespace
// enabled, matching the Rust default.
func New() *Auth {
	return &Auth{
		tokens:                make(map[string]registration),
		AllowAnonymousDefault: true,
	}
}

// RegisterToken grants token access to the given namespace glob patterns
// ("*" for all, a trailing "*" for a prefix match, or an exact name) under
// permission.
func (a *Auth) RegisterToken(token string, namespaces []string, permission Permission) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens[token] = registration{patterns: namespaces, permission: permission}
}

// Check verifies that token (empty meaning anonymous) may perform operation
// ("read", "write", "delete", "reason") against namespace.
func (a *Auth) Check(token, namespace, operation string) error {
	if token == "" && namespace == "default" && a.AllowAnonymousDefault {
		return nil
	}
	if token == "" {
		return fmt.Errorf("authtoken: authentication required")
	}

	a.mu.RLock()
	reg, ok := a.tokens[token]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("authtoken: invalid token")
	}

	if !namespaceMatches(reg.patterns, namespace) {
		return fmt.Errorf("authtoken: token not authorized for namespace %q: %w", namespace, synerr.ErrPermissionDenied)
	}

	switch operation {
	case "read":
		if !reg.permission.Read {
			return fmt.Errorf("authtoken: read: %w", synerr.ErrPermissionDenied)
		}
	case "write":
		if !reg.permission.Write {
			return fmt.Errorf("authtoken: write: %w", synerr.ErrPermissionDenied)
		}
	case "delete":
		if !reg.permission.Delete {
			return fmt.Errorf("authtoken: delete: %w", synerr.ErrPermissionDenied)
		}
	case "reason":
		if !reg.permission.Reason {
			return fmt.Errorf("authtoken: reasoning: %w", synerr.ErrPermissionDenied)
		}
	}
	return nil
}

func namespaceMatches(patterns []string, namespace string) bool {
	for _, p := range patterns {
		switch {
		case p == "*":
			return true
		case strings.HasSuffix(p, "*"):
			if strings.HasPrefix(namespace, strings.TrimSuffix(p, "*")) {
				return true
			}
		case p == namespace:
			return true
		}
	}
	return false
}

// LoadFromEnv reads AUTH_TOKENS as a JSON object of token -> []namespace
// pattern, registering each with DefaultPermission. Malformed or missing
// input leaves the token set untouched.
func (a *Auth) LoadFromEnv() {
	raw := os.Getenv("AUTH_TOKENS")
	if raw == "" {
		return
	}

	var m map[string][]string
	if err := jsonx.Unmarshal([]byte(raw), &m); err != nil {
		return
	}
	for token, namespaces := range m {
		a.RegisterToken(token, namespaces, DefaultPermission())
	}
}
