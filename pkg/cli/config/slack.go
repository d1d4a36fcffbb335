package config

import (
	"log/slog"

	"github.com/Octonove/octo-user-copy/pkg/service/slack"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for posting sync reports to a channel
type Slack struct {
	botToken     string
	channelID    string
	onlyFailures bool
	apiURL       string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for posting sync reports)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("OCTO_UC_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Channel that receives sync reports",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("OCTO_UC_SLACK_CHANNEL_ID"),
		},
		&cli.BoolFlag{
			Name:        "slack-only-failures",
			Usage:       "Post only reports of failed passes",
			Category:    "Slack",
			Destination: &x.onlyFailures,
			Sources:     cli.EnvVars("OCTO_UC_SLACK_ONLY_FAILURES"),
		},
		&cli.StringFlag{
			Name:        "slack-api-url",
			Usage:       "Override of the Slack API base URL",
			Category:    "Slack",
			Hidden:      true,
			Destination: &x.apiURL,
			Sources:     cli.EnvVars("OCTO_UC_SLACK_API_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel-id", x.channelID),
		slog.Bool("only-failures", x.onlyFailures),
	)
}

// IsConfigured reports whether both the token and the channel are set
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.channelID != ""
}

// Configure returns nil when Slack is not configured. source names the
// reporting site in the posted message.
func (x *Slack) Configure(source string) (*slack.Notifier, error) {
	if !x.IsConfigured() {
		if x.botToken != "" || x.channelID != "" {
			return nil, goerr.Wrap(ErrMissingRequired, "slack-bot-token and slack-channel-id must be set together")
		}
		return nil, nil
	}

	opts := []slack.Option{
		slack.WithOnlyFailures(x.onlyFailures),
		slack.WithSource(source),
	}
	if x.apiURL != "" {
		opts = append(opts, slack.WithAPIURL(x.apiURL))
	}

	notifier, err := slack.New(x.botToken, x.channelID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack notifier")
	}
	return notifier, nil
}
