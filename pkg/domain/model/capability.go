package model

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// CapabilityMap maps a role or capability key to whether it is granted.
type CapabilityMap map[string]bool

// UnmarshalJSON accepts an object whose values are booleans or their loose
// equivalents (1, "1", "true"), a JSON array of granted keys, or null.
func (m *CapabilityMap) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var keys []string
		if err := json.Unmarshal(data, &keys); err != nil {
			return goerr.Wrap(err, "capability list must contain strings")
		}
		out := make(CapabilityMap, len(keys))
		for _, k := range keys {
			out[k] = true
		}
		*m = out
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return goerr.Wrap(err, "capabilities must be an object")
	}
	out := make(CapabilityMap, len(raw))
	for k, v := range raw {
		out[k] = truthy(v)
	}
	*m = out
	return nil
}

// GrantedKeys returns the granted keys in sorted order
func (m CapabilityMap) GrantedKeys() []string {
	keys := make([]string, 0, len(m))
	for k, granted := range m {
		if granted {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// BuildCapabilities computes the capability map stored on an account: every
// role is granted, then every granted capability is added. Denied entries
// are dropped rather than stored as false. An empty result falls back to the
// subscriber role.
func BuildCapabilities(roles []string, caps CapabilityMap) CapabilityMap {
	out := CapabilityMap{}
	for _, role := range roles {
		if role == "" {
			continue
		}
		out[role] = true
	}
	for k, granted := range caps {
		if granted {
			out[k] = true
		}
	}
	if len(out) == 0 {
		out[RoleSubscriber] = true
	}
	return out
}

// UserLevel derives the legacy numeric privilege level from role names.
func UserLevel(roles []string) int {
	switch {
	case slices.Contains(roles, RoleAdministrator):
		return 10
	case slices.Contains(roles, RoleEditor):
		return 7
	case slices.Contains(roles, RoleAuthor):
		return 2
	case slices.Contains(roles, RoleContributor):
		return 1
	default:
		return 0
	}
}

// EffectiveCapabilities merges the capabilities of every role the account
// holds and then overlays the account's own entries, including explicit
// denials. Role keys themselves stay in the result.
func EffectiveCapabilities(userCaps CapabilityMap, roles map[string]*Role) CapabilityMap {
	out := CapabilityMap{}
	for _, key := range userCaps.GrantedKeys() {
		if role, ok := roles[key]; ok {
			maps.Copy(out, role.Capabilities)
		}
	}
	maps.Copy(out, userCaps)
	return out
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "0", "false":
			return false
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f != 0
		}
		return true
	case nil:
		return false
	default:
		return true
	}
}

func isEmptyJSONArray(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return false
	}
	return len(bytes.TrimSpace(trimmed[1:len(trimmed)-1])) == 0
}
