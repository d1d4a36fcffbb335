package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Policy holds CLI flags that select the export and import policy
type Policy struct {
	path        string
	tablePrefix string
}

func (p *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy",
			Usage:       "Path to a TOML policy file. Built-in defaults apply when omitted",
			Category:    "Policy",
			Sources:     cli.EnvVars("OCTO_UC_POLICY"),
			Destination: &p.path,
		},
		&cli.StringFlag{
			Name:        "table-prefix",
			Usage:       "Prefix of the synthetic capability and level meta keys",
			Value:       usecase.DefaultTablePrefix,
			Category:    "Policy",
			Sources:     cli.EnvVars("OCTO_UC_TABLE_PREFIX"),
			Destination: &p.tablePrefix,
		},
	}
}

func (p Policy) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", p.path),
		slog.String("table_prefix", p.tablePrefix),
	)
}

// Configure returns the policy from the file, or the defaults for the table
// prefix when no file is set.
func (p *Policy) Configure() (usecase.Policy, error) {
	if p.path == "" {
		return usecase.PolicyForPrefix(p.tablePrefix), nil
	}
	return LoadPolicy(p.path, p.tablePrefix)
}

// PolicyFile is the TOML layout of a policy file. Omitted settings keep
// their defaults.
type PolicyFile struct {
	TablePrefix string   `toml:"table_prefix"`
	SystemRoles []string `toml:"system_roles"`
	Export      struct {
		AllowedMetaKeys     []string `toml:"allowed_meta_keys"`
		AllowedMetaPrefixes []string `toml:"allowed_meta_prefixes"`
		InactiveAfterDays   *int     `toml:"inactive_after_days"`
	} `toml:"export"`
	Import struct {
		DeniedMetaKeys []string `toml:"denied_meta_keys"`
	} `toml:"import"`
}

// LoadPolicy reads a TOML policy file. defaultPrefix applies when the file
// does not set table_prefix.
func LoadPolicy(path, defaultPrefix string) (usecase.Policy, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return usecase.Policy{}, goerr.Wrap(ErrConfigNotFound, "policy file not found", goerr.V(ConfigPathKey, path))
		}
		return usecase.Policy{}, goerr.Wrap(err, "failed to read policy file", goerr.V(ConfigPathKey, path))
	}

	var file PolicyFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return usecase.Policy{}, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML policy",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	policy, err := file.ToPolicy(defaultPrefix)
	if err != nil {
		return usecase.Policy{}, goerr.Wrap(err, "policy validation failed", goerr.V(ConfigPathKey, path))
	}
	return policy, nil
}

// ToPolicy overlays the file on the defaults for its table prefix
func (f *PolicyFile) ToPolicy(defaultPrefix string) (usecase.Policy, error) {
	prefix := f.TablePrefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	if prefix == "" {
		prefix = usecase.DefaultTablePrefix
	}

	policy := usecase.PolicyForPrefix(prefix)
	if f.SystemRoles != nil {
		policy.SystemRoles = f.SystemRoles
	}
	if f.Export.AllowedMetaKeys != nil {
		policy.ExportMetaKeys = f.Export.AllowedMetaKeys
	}
	if f.Export.AllowedMetaPrefixes != nil {
		policy.ExportMetaPrefixes = f.Export.AllowedMetaPrefixes
	}
	if days := f.Export.InactiveAfterDays; days != nil {
		if *days <= 0 {
			return usecase.Policy{}, goerr.Wrap(ErrInvalidConfig, "inactive_after_days must be positive",
				goerr.V("inactive_after_days", *days))
		}
		policy.InactiveAfter = time.Duration(*days) * 24 * time.Hour
	}
	if f.Import.DeniedMetaKeys != nil {
		policy.ImportDeniedMetaKeys = f.Import.DeniedMetaKeys
	}

	for _, role := range policy.SystemRoles {
		if role == "" {
			return usecase.Policy{}, goerr.Wrap(ErrInvalidConfig, "system role must not be empty")
		}
	}
	return policy, nil
}
