package config

import (
	"log/slog"
	"strings"

	httpctrl "github.com/Octonove/octo-user-copy/pkg/controller/http"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Emitter holds CLI flags of the export endpoints served in emitter mode
type Emitter struct {
	apiKey       string
	apiPath      string
	excludeRoles []string
	onlyActive   bool
}

func (x *Emitter) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "Shared key that receivers pass in the key query parameter",
			Category:    "Emitter",
			Destination: &x.apiKey,
			Sources:     cli.EnvVars("OCTO_UC_API_KEY"),
		},
		&cli.StringFlag{
			Name:        "api-path",
			Usage:       "Path under which the export endpoints are mounted",
			Value:       httpctrl.DefaultAPIPath,
			Category:    "Emitter",
			Destination: &x.apiPath,
			Sources:     cli.EnvVars("OCTO_UC_API_PATH"),
		},
		&cli.StringSliceFlag{
			Name:        "exclude-roles",
			Usage:       "Accounts holding any of these roles are not exported",
			Category:    "Emitter",
			Destination: &x.excludeRoles,
			Sources:     cli.EnvVars("OCTO_UC_EXCLUDE_ROLES"),
		},
		&cli.BoolFlag{
			Name:        "only-active",
			Usage:       "Export only accounts that logged in recently",
			Category:    "Emitter",
			Destination: &x.onlyActive,
			Sources:     cli.EnvVars("OCTO_UC_ONLY_ACTIVE"),
		},
	}
}

func (x Emitter) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("api-key.len", len(x.apiKey)),
		slog.String("api-path", x.apiPath),
		slog.Any("exclude-roles", x.ExcludeRoles()),
		slog.Bool("only-active", x.onlyActive),
	)
}

// ExcludeRoles returns the excluded role keys without blanks
func (x *Emitter) ExcludeRoles() []string {
	roles := make([]string, 0, len(x.excludeRoles))
	for _, r := range x.excludeRoles {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

func (x *Emitter) OnlyActive() bool {
	return x.onlyActive
}

// Configure validates the settings and returns them for the HTTP server
func (x *Emitter) Configure() (httpctrl.EmitterConfig, error) {
	if x.apiKey == "" {
		return httpctrl.EmitterConfig{}, goerr.Wrap(ErrMissingRequired, "api-key is required in emitter mode",
			goerr.V(FlagKey, "api-key"))
	}
	return httpctrl.EmitterConfig{
		APIPath:      x.apiPath,
		APIKey:       x.apiKey,
		ExcludeRoles: x.ExcludeRoles(),
		OnlyActive:   x.onlyActive,
	}, nil
}
