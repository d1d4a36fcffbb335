package cli

import (
	"context"
	"os"

	"github.com/Octonove/octo-user-copy/pkg/usecase"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// ErrSyncFailed is returned by the sync command when the pass failed
var ErrSyncFailed = goerr.New("sync failed")

func cmdSync(version string) *cli.Command {
	var store storeDeps
	var recv receiverDeps
	var siteURL string
	var jsonOutput bool

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "site-url",
			Usage:       "Public URL of this site, reported by notifications",
			Sources:     cli.EnvVars("OCTO_UC_SITE_URL"),
			Destination: &siteURL,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the report as JSON",
			Destination: &jsonOutput,
		},
	}
	flags = append(flags, store.repository.Flags()...)
	flags = append(flags, store.policy.Flags()...)
	flags = append(flags, recv.receiver.Flags()...)
	flags = append(flags, recv.slack.Flags()...)
	flags = append(flags, recv.archive.Flags()...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Run one sync pass against the emitter and print the report",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, ucOpts, err := store.open(ctx, version, siteURL)
			if err != nil {
				return err
			}
			defer closeRepository(ctx, repo)

			recvOpts, closeSinks, err := recv.receiverOptions(ctx, version, siteURL)
			if err != nil {
				return err
			}
			defer closeSinks()

			uc := usecase.New(repo, append(ucOpts, recvOpts...)...)
			report := uc.Sync.Run(ctx, usecase.TriggerCLI)
			// Deliver notifications before the process exits
			uc.Wait()

			if jsonOutput {
				if err := printJSON(os.Stdout, report); err != nil {
					return err
				}
			} else {
				printReport(os.Stdout, report)
			}

			if !report.Success {
				logging.From(ctx).Debug("Sync pass failed", "message", report.Message)
				return goerr.Wrap(ErrSyncFailed, report.Message)
			}
			return nil
		},
	}
}
