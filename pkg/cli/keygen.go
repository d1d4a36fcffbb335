package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdKeygen() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate a random API key for the emitter",
		Action: func(ctx context.Context, c *cli.Command) error {
			key, err := model.NewAPIKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, key)
			return nil
		},
	}
}
