package config

import (
	"log/slog"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/Octonove/octo-user-copy/pkg/service/emitter"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Receiver holds CLI flags of the pulling side: where the emitter lives and
// how often to pull from it.
type Receiver struct {
	emitterURL     string
	emitterKey     string
	emitterAPIPath string
	rolesTimeout   time.Duration
	usersTimeout   time.Duration
	insecure       bool
	frequency      string
	adminKey       string
}

func (x *Receiver) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "emitter-url",
			Usage:       "Base URL of the emitter site",
			Category:    "Receiver",
			Destination: &x.emitterURL,
			Sources:     cli.EnvVars("OCTO_UC_EMITTER_URL"),
		},
		&cli.StringFlag{
			Name:        "emitter-api-key",
			Usage:       "API key configured on the emitter",
			Category:    "Receiver",
			Destination: &x.emitterKey,
			Sources:     cli.EnvVars("OCTO_UC_EMITTER_API_KEY"),
		},
		&cli.StringFlag{
			Name:        "emitter-api-path",
			Usage:       "Path of the export endpoints on the emitter",
			Value:       emitter.DefaultAPIPath,
			Category:    "Receiver",
			Destination: &x.emitterAPIPath,
			Sources:     cli.EnvVars("OCTO_UC_EMITTER_API_PATH"),
		},
		&cli.DurationFlag{
			Name:        "roles-timeout",
			Usage:       "Timeout of the roles request",
			Value:       emitter.DefaultRolesTimeout,
			Category:    "Receiver",
			Destination: &x.rolesTimeout,
			Sources:     cli.EnvVars("OCTO_UC_ROLES_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:        "users-timeout",
			Usage:       "Timeout of the users request",
			Value:       emitter.DefaultUsersTimeout,
			Category:    "Receiver",
			Destination: &x.usersTimeout,
			Sources:     cli.EnvVars("OCTO_UC_USERS_TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:        "insecure-skip-verify",
			Usage:       "Skip TLS certificate verification of the emitter (development only)",
			Category:    "Receiver",
			Destination: &x.insecure,
			Sources:     cli.EnvVars("OCTO_UC_INSECURE_SKIP_VERIFY"),
		},
		&cli.StringFlag{
			Name:        "frequency",
			Usage:       "Sync schedule (hourly, twicedaily, daily, weekly)",
			Value:       types.FrequencyDaily.String(),
			Category:    "Receiver",
			Destination: &x.frequency,
			Sources:     cli.EnvVars("OCTO_UC_FREQUENCY"),
		},
		&cli.StringFlag{
			Name:        "admin-key",
			Usage:       "Bearer token of the /api admin endpoints, also guarding the export audit log of an emitter. They are disabled when empty",
			Category:    "Receiver",
			Destination: &x.adminKey,
			Sources:     cli.EnvVars("OCTO_UC_ADMIN_KEY"),
		},
	}
}

func (x Receiver) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("emitter-url", x.emitterURL),
		slog.Int("emitter-api-key.len", len(x.emitterKey)),
		slog.String("emitter-api-path", x.emitterAPIPath),
		slog.Duration("roles-timeout", x.rolesTimeout),
		slog.Duration("users-timeout", x.usersTimeout),
		slog.Bool("insecure-skip-verify", x.insecure),
		slog.String("frequency", x.frequency),
		slog.Bool("admin-api", x.adminKey != ""),
	)
}

// AdminKey returns the bearer token of the admin endpoints
func (x *Receiver) AdminKey() string {
	return x.adminKey
}

// Interval returns the time between scheduled passes
func (x *Receiver) Interval() (time.Duration, error) {
	f, err := types.ParseFrequency(x.frequency)
	if err != nil {
		return 0, goerr.Wrap(ErrInvalidConfig, "invalid frequency",
			goerr.V(FlagKey, "frequency"), goerr.V("frequency", x.frequency))
	}
	return f.Interval(), nil
}

// NewClient builds the emitter client. An unset URL or key yields a client
// that reports itself as not configured, which sync turns into a failure
// report rather than a startup error.
func (x *Receiver) NewClient(userAgent string) *emitter.Client {
	return emitter.New(x.emitterURL, x.emitterKey,
		emitter.WithAPIPath(x.emitterAPIPath),
		emitter.WithTimeouts(x.rolesTimeout, x.usersTimeout),
		emitter.WithInsecureSkipVerify(x.insecure),
		emitter.WithUserAgent(userAgent),
	)
}
