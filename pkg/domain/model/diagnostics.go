package model

// Diagnostics is the payload of the emitter debug endpoint.
type Diagnostics struct {
	SiteInfo   DiagnosticsSite     `json:"site_info"`
	Settings   DiagnosticsSettings `json:"settings"`
	UsersCount int                 `json:"users_count"`
	Roles      []string            `json:"roles"`
	TestQuery  DiagnosticsQuery    `json:"test_query"`
}

type DiagnosticsSite struct {
	URL        string `json:"url"`
	AppVersion string `json:"app_version"`
	GoVersion  string `json:"go_version"`
	Backend    string `json:"backend,omitempty"`
}

type DiagnosticsSettings struct {
	Mode            string   `json:"mode"`
	ExcludeRoles    []string `json:"exclude_roles"`
	OnlyActiveUsers bool     `json:"only_active_users"`
}

type DiagnosticsQuery struct {
	AllUsers    int `json:"all_users"`
	WithExclude int `json:"with_exclude"`
	Exported    int `json:"exported"`
}
