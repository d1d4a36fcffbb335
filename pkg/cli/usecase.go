package cli

import (
	"context"
	"runtime/debug"

	"github.com/Octonove/octo-user-copy/pkg/cli/config"
	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/Octonove/octo-user-copy/pkg/usecase"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// receiverDeps are the flag groups a pulling command needs
type receiverDeps struct {
	receiver config.Receiver
	slack    config.Slack
	archive  config.Archive
}

// receiverOptions wires the emitter client and the report sinks. The
// returned closer releases the sinks and is never nil.
func (d *receiverDeps) receiverOptions(ctx context.Context, version, siteURL string) ([]usecase.Option, func(), error) {
	opts := []usecase.Option{
		usecase.WithMode(types.ModeReceiver),
		usecase.WithEmitter(d.receiver.NewClient(userAgent(version))),
	}

	notifier, err := d.slack.Configure(siteURL)
	if err != nil {
		return nil, func() {}, err
	}
	if notifier != nil {
		opts = append(opts, usecase.WithReportSinks(notifier))
		logging.From(ctx).Info("Slack report notification enabled")
	}

	archiver, closeArchive, err := d.archive.Configure(ctx)
	if err != nil {
		return nil, func() {}, err
	}
	if archiver != nil {
		opts = append(opts, usecase.WithReportSinks(archiver))
		logging.From(ctx).Info("Report archive enabled", "archive", d.archive)
	}

	closer := func() {
		if err := closeArchive(); err != nil {
			logging.From(ctx).Error("failed to close archive", "error", err.Error())
		}
	}
	return opts, closer, nil
}

// storeDeps are the flag groups of every command that touches local storage
type storeDeps struct {
	repository config.Repository
	policy     config.Policy
}

// open returns the repository and the base use case options for it. The
// caller must close the repository.
func (d *storeDeps) open(ctx context.Context, version, siteURL string) (interfaces.Repository, []usecase.Option, error) {
	policy, err := d.policy.Configure()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load policy")
	}

	repo, cache, err := d.repository.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	opts := []usecase.Option{
		usecase.WithPolicy(policy),
		usecase.WithSiteInfo(model.DiagnosticsSite{
			URL:        siteURL,
			AppVersion: version,
			Backend:    d.repository.Backend(),
		}),
	}
	if cache != nil {
		opts = append(opts, usecase.WithUserCache(cache))
	}
	return repo, opts, nil
}

func closeRepository(ctx context.Context, repo interfaces.Repository) {
	if err := repo.Close(); err != nil {
		logging.From(ctx).Error("failed to close repository", "error", err.Error())
	}
}

func userAgent(version string) string {
	if version == "" || version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	return "octo-user-copy/" + version
}
