package cli

import (
	"context"
	"os"

	"github.com/Octonove/octo-user-copy/pkg/cli/config"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/Octonove/octo-user-copy/pkg/repository/memory"
	"github.com/Octonove/octo-user-copy/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// ErrConnectionFailed is returned by the ping command when the emitter did
// not answer with a valid roles payload
var ErrConnectionFailed = goerr.New("connection test failed")

func cmdPing(version string) *cli.Command {
	var receiverCfg config.Receiver
	var jsonOutput bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the result as JSON",
			Destination: &jsonOutput,
		},
	}
	flags = append(flags, receiverCfg.Flags()...)

	return &cli.Command{
		Name:  "ping",
		Usage: "Test the connection to the emitter",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// The connection test reads nothing from local storage
			uc := usecase.New(memory.New(),
				usecase.WithMode(types.ModeReceiver),
				usecase.WithEmitter(receiverCfg.NewClient(userAgent(version))),
			)

			res := uc.Sync.TestConnection(ctx)
			if jsonOutput {
				if err := printJSON(os.Stdout, res); err != nil {
					return err
				}
			} else {
				printConnection(os.Stdout, res)
			}

			if !res.Success {
				return goerr.Wrap(ErrConnectionFailed, res.Message, goerr.V("status", res.Status))
			}
			return nil
		},
	}
}
