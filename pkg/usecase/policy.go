package usecase

import (
	"slices"
	"time"
)

const (
	DefaultTablePrefix   = "wp_"
	DefaultInactiveAfter = 90 * 24 * time.Hour

	// Meta keys stamped on every account written by sync
	MetaLastSync = "octo_uc_last_sync"
	MetaSourceID = "octo_uc_source_id"

	// MetaLastLogin is read by the only-active export filter
	MetaLastLogin = "last_login"
)

// Policy holds the tunable rules of export and import.
type Policy struct {
	// TablePrefix names the synthetic capability and level meta keys
	TablePrefix string

	SystemRoles []string

	ExportMetaKeys     []string
	ExportMetaPrefixes []string
	InactiveAfter      time.Duration

	ImportDeniedMetaKeys []string
}

func DefaultPolicy() Policy {
	return PolicyForPrefix(DefaultTablePrefix)
}

// PolicyForPrefix returns the default policy with every prefixed key derived
// from prefix.
func PolicyForPrefix(prefix string) Policy {
	return Policy{
		TablePrefix: prefix,
		SystemRoles: []string{
			"administrator",
			"editor",
			"author",
			"contributor",
			"subscriber",
		},
		ExportMetaKeys: []string{
			"nickname",
			"rich_editing",
			"syntax_highlighting",
			"comment_shortcuts",
			"admin_color",
			"use_ssl",
			"show_admin_bar_front",
			"locale",
			prefix + "capabilities",
			prefix + "user_level",
			"dismissed_wp_pointers",
			"show_welcome_panel",
			prefix + "dashboard_quick_press_last_post_id",
			"community-events-location",
			MetaLastSync,
			MetaLastLogin,
		},
		ExportMetaPrefixes: []string{prefix, "octo_", "woocommerce_", "edd_"},
		InactiveAfter:      DefaultInactiveAfter,
		ImportDeniedMetaKeys: []string{
			"session_tokens",
			prefix + "user-settings",
			prefix + "user-settings-time",
		},
	}
}

func (p Policy) IsSystemRole(key string) bool {
	return slices.Contains(p.SystemRoles, key)
}

// CapabilitiesKey is the meta key that carries the stored capability map
func (p Policy) CapabilitiesKey() string {
	return p.TablePrefix + "capabilities"
}

// UserLevelKey is the meta key that carries the numeric user level
func (p Policy) UserLevelKey() string {
	return p.TablePrefix + "user_level"
}
