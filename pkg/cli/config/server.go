package config

import (
	"log/slog"

	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Server holds CLI flags of the HTTP listener and the role of the process
type Server struct {
	addr    string
	mode    string
	siteURL string
}

func (x *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("OCTO_UC_ADDR"),
			Destination: &x.addr,
		},
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "Role of this site (emitter, receiver)",
			Value:       types.ModeReceiver.String(),
			Sources:     cli.EnvVars("OCTO_UC_MODE"),
			Destination: &x.mode,
		},
		&cli.StringFlag{
			Name:        "site-url",
			Usage:       "Public URL of this site, reported by diagnostics and notifications",
			Sources:     cli.EnvVars("OCTO_UC_SITE_URL"),
			Destination: &x.siteURL,
		},
	}
}

func (x Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", x.addr),
		slog.String("mode", x.mode),
		slog.String("site-url", x.siteURL),
	)
}

func (x *Server) Addr() string {
	return x.addr
}

func (x *Server) SiteURL() string {
	return x.siteURL
}

func (x *Server) Mode() (types.Mode, error) {
	m, err := types.ParseMode(x.mode)
	if err != nil {
		return "", goerr.Wrap(ErrInvalidConfig, "invalid mode", goerr.V(FlagKey, "mode"), goerr.V("mode", x.mode))
	}
	return m, nil
}
