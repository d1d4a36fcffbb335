package usecase

import (
	"slices"
	"strings"
)

// MetaFilter decides whether a meta key crosses the sync boundary.
type MetaFilter interface {
	AllowMeta(key string) bool
}

type MetaFilterFunc func(key string) bool

func (f MetaFilterFunc) AllowMeta(key string) bool {
	return f(key)
}

// AllowKeys allows exactly the listed keys
func AllowKeys(keys ...string) MetaFilter {
	return MetaFilterFunc(func(key string) bool {
		return slices.Contains(keys, key)
	})
}

// AllowPrefixes allows keys starting with any of the prefixes
func AllowPrefixes(prefixes ...string) MetaFilter {
	return MetaFilterFunc(func(key string) bool {
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(key, p) {
				return true
			}
		}
		return false
	})
}

// DenyKeys rejects exactly the listed keys
func DenyKeys(keys ...string) MetaFilter {
	return MetaFilterFunc(func(key string) bool {
		return !slices.Contains(keys, key)
	})
}

// DenyCapabilityKeys rejects capKey and every key containing "_capabilities".
// Capabilities are applied by capability sync, never as raw meta.
func DenyCapabilityKeys(capKey string) MetaFilter {
	return MetaFilterFunc(func(key string) bool {
		return key != capKey && !strings.Contains(key, "_capabilities")
	})
}

// AnyOf allows a key when at least one filter allows it
func AnyOf(filters ...MetaFilter) MetaFilter {
	return MetaFilterFunc(func(key string) bool {
		for _, f := range filters {
			if f.AllowMeta(key) {
				return true
			}
		}
		return false
	})
}

// AllOf allows a key only when every filter allows it
func AllOf(filters ...MetaFilter) MetaFilter {
	return MetaFilterFunc(func(key string) bool {
		for _, f := range filters {
			if !f.AllowMeta(key) {
				return false
			}
		}
		return true
	})
}

func filterMeta(meta map[string]any, f MetaFilter) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if f.AllowMeta(k) {
			out[k] = v
		}
	}
	return out
}
