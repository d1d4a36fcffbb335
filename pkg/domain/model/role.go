package model

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/m-mizutani/goerr/v2"
)

// Well-known role keys
const (
	RoleAdministrator = "administrator"
	RoleEditor        = "editor"
	RoleAuthor        = "author"
	RoleContributor   = "contributor"
	RoleSubscriber    = "subscriber"
)

// SystemRoleKeys returns the built-in roles that sync never creates or
// modifies.
func SystemRoleKeys() []string {
	return []string{
		RoleAdministrator,
		RoleEditor,
		RoleAuthor,
		RoleContributor,
		RoleSubscriber,
	}
}

// Role is a named set of capabilities.
type Role struct {
	Key          string        `json:"-"`
	Name         string        `json:"name"`
	Capabilities CapabilityMap `json:"capabilities"`
}

func (r *Role) Clone() *Role {
	if r == nil {
		return nil
	}
	c := *r
	c.Capabilities = maps.Clone(r.Capabilities)
	return &c
}

// RoleMap is the roles payload keyed by role key. It also accepts an empty
// JSON array, which is what an emitter without roles serializes.
type RoleMap map[string]*Role

func (m *RoleMap) UnmarshalJSON(data []byte) error {
	if isEmptyJSONArray(data) {
		*m = RoleMap{}
		return nil
	}

	var raw map[string]*Role
	if err := json.Unmarshal(data, &raw); err != nil {
		return goerr.Wrap(err, "roles payload must be an object keyed by role")
	}

	out := make(RoleMap, len(raw))
	for key, role := range raw {
		if role == nil {
			role = &Role{}
		}
		role.Key = key
		if role.Capabilities == nil {
			role.Capabilities = CapabilityMap{}
		}
		out[key] = role
	}
	*m = out
	return nil
}

// Keys returns the role keys in sorted order
func (m RoleMap) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// DefaultRoles returns the built-in role definitions seeded into an empty
// store.
func DefaultRoles() []*Role {
	subscriber := CapabilityMap{"read": true, "level_0": true}

	contributor := maps.Clone(subscriber)
	maps.Copy(contributor, CapabilityMap{"edit_posts": true, "delete_posts": true, "level_1": true})

	author := maps.Clone(contributor)
	maps.Copy(author, CapabilityMap{
		"upload_files":           true,
		"publish_posts":          true,
		"edit_published_posts":   true,
		"delete_published_posts": true,
		"level_2":                true,
	})

	editor := maps.Clone(author)
	maps.Copy(editor, CapabilityMap{
		"moderate_comments":      true,
		"manage_categories":      true,
		"manage_links":           true,
		"edit_others_posts":      true,
		"edit_pages":             true,
		"edit_others_pages":      true,
		"edit_published_pages":   true,
		"publish_pages":          true,
		"delete_pages":           true,
		"delete_others_pages":    true,
		"delete_published_pages": true,
		"delete_others_posts":    true,
		"delete_private_posts":   true,
		"edit_private_posts":     true,
		"read_private_posts":     true,
		"delete_private_pages":   true,
		"edit_private_pages":     true,
		"read_private_pages":     true,
		"unfiltered_html":        true,
		"level_3":                true,
		"level_4":                true,
		"level_5":                true,
		"level_6":                true,
		"level_7":                true,
	})

	administrator := maps.Clone(editor)
	maps.Copy(administrator, CapabilityMap{
		"switch_themes":      true,
		"edit_themes":        true,
		"activate_plugins":   true,
		"edit_plugins":       true,
		"edit_users":         true,
		"edit_files":         true,
		"manage_options":     true,
		"import":             true,
		"export":             true,
		"list_users":         true,
		"create_users":       true,
		"delete_users":       true,
		"promote_users":      true,
		"remove_users":       true,
		"add_users":          true,
		"install_plugins":    true,
		"update_plugins":     true,
		"delete_plugins":     true,
		"install_themes":     true,
		"update_themes":      true,
		"delete_themes":      true,
		"edit_theme_options": true,
		"update_core":        true,
		"level_8":            true,
		"level_9":            true,
		"level_10":           true,
	})

	return []*Role{
		{Key: RoleAdministrator, Name: "Administrator", Capabilities: administrator},
		{Key: RoleEditor, Name: "Editor", Capabilities: editor},
		{Key: RoleAuthor, Name: "Author", Capabilities: author},
		{Key: RoleContributor, Name: "Contributor", Capabilities: contributor},
		{Key: RoleSubscriber, Name: "Subscriber", Capabilities: subscriber},
	}
}
