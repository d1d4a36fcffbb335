package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Notifier posts sync reports to a Slack channel
type Notifier struct {
	api          *slack.Client
	channelID    string
	onlyFailures bool
	source       string
}

var _ interfaces.ReportSink = &Notifier{}

// Option is a functional option for Notifier configuration
type Option func(*notifierConfig)

type notifierConfig struct {
	apiURL       string
	onlyFailures bool
	source       string
}

// WithAPIURL points the client to another Slack API endpoint. The URL must
// end with a slash.
func WithAPIURL(url string) Option {
	return func(c *notifierConfig) {
		c.apiURL = url
	}
}

// WithOnlyFailures suppresses reports of successful passes
func WithOnlyFailures(only bool) Option {
	return func(c *notifierConfig) {
		c.onlyFailures = only
	}
}

// WithSource sets the emitter URL shown in messages
func WithSource(source string) Option {
	return func(c *notifierConfig) {
		c.source = source
	}
}

// New creates a Notifier with the provided bot token
func New(token, channelID string, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	var cfg notifierConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var apiOpts []slack.Option
	if cfg.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(cfg.apiURL))
	}

	return &Notifier{
		api:          slack.New(token, apiOpts...),
		channelID:    channelID,
		onlyFailures: cfg.onlyFailures,
		source:       cfg.source,
	}, nil
}

func (n *Notifier) Publish(ctx context.Context, report *model.SyncReport) error {
	if report == nil || (n.onlyFailures && report.Success) {
		return nil
	}

	blocks := buildReportBlocks(report, n.source)
	_, ts, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(fallbackText(report), false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post sync report", goerr.V("channel_id", n.channelID))
	}

	logging.From(ctx).Debug("Posted sync report to Slack", "channel_id", n.channelID, "ts", ts)
	return nil
}

func fallbackText(report *model.SyncReport) string {
	if report.Success {
		return "User sync completed: " + report.Message
	}
	return "User sync failed: " + report.Message
}

func buildReportBlocks(report *model.SyncReport, source string) []slack.Block {
	title := ":white_check_mark: User sync completed"
	if !report.Success {
		title = ":x: User sync failed"
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, title, true, false),
		),
	}

	if report.Stats != nil {
		fields := []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Created*\n%d", report.Stats.Created), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Updated*\n%d", report.Stats.Updated), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Skipped*\n%d", report.Stats.Skipped), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Errors*\n%d", report.Stats.Errors), false, false),
		}
		blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	} else {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, report.Message, false, false),
			nil, nil,
		))
	}

	contextText := fmt.Sprintf("Trigger: %s  |  Duration: %s", report.Trigger, report.Duration().Round(time.Millisecond))
	if source != "" {
		contextText += fmt.Sprintf("  |  Source: <%s|%s>", source, source)
	}
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, contextText, false, false),
	))

	return blocks
}
