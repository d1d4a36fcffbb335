package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/cli/config"
	httpctrl "github.com/Octonove/octo-user-copy/pkg/controller/http"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/Octonove/octo-user-copy/pkg/service/worker"
	"github.com/Octonove/octo-user-copy/pkg/usecase"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func cmdServe(version string) *cli.Command {
	var serverCfg config.Server
	var emitterCfg config.Emitter
	var store storeDeps
	var recv receiverDeps

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, store.repository.Flags()...)
	flags = append(flags, store.policy.Flags()...)
	flags = append(flags, emitterCfg.Flags()...)
	flags = append(flags, recv.receiver.Flags()...)
	flags = append(flags, recv.slack.Flags()...)
	flags = append(flags, recv.archive.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server as emitter or receiver",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			mode, err := serverCfg.Mode()
			if err != nil {
				return err
			}

			// Validate mode specific settings before touching storage
			var exportCfg httpctrl.EmitterConfig
			var interval time.Duration
			switch mode {
			case types.ModeEmitter:
				if exportCfg, err = emitterCfg.Configure(); err != nil {
					return err
				}
			case types.ModeReceiver:
				if interval, err = recv.receiver.Interval(); err != nil {
					return err
				}
			}

			logger.Info("Serve configuration",
				"server", serverCfg,
				"repository", store.repository,
				"policy", store.policy,
				"emitter", emitterCfg,
				"receiver", recv.receiver,
				"slack", recv.slack)

			repo, ucOpts, err := store.open(ctx, version, serverCfg.SiteURL())
			if err != nil {
				return err
			}
			defer closeRepository(ctx, repo)

			ucOpts = append(ucOpts, usecase.WithMode(mode))
			if mode == types.ModeReceiver {
				recvOpts, closeSinks, err := recv.receiverOptions(ctx, version, serverCfg.SiteURL())
				if err != nil {
					return err
				}
				defer closeSinks()
				ucOpts = append(ucOpts, recvOpts...)
			}

			uc := usecase.New(repo, ucOpts...)
			defer uc.Wait()

			httpOpts := []httpctrl.Options{
				httpctrl.WithReadiness(repo.Ping),
			}
			switch mode {
			case types.ModeEmitter:
				httpOpts = append(httpOpts,
					httpctrl.WithEmitter(uc.Export, exportCfg),
					httpctrl.WithActivityLog(uc.Activity, recv.receiver.AdminKey()),
				)
			case types.ModeReceiver:
				httpOpts = append(httpOpts, httpctrl.WithReceiver(uc.Sync, uc.Activity, recv.receiver.AdminKey()))
				if recv.receiver.AdminKey() == "" {
					logger.Warn("admin-key is not set, /api endpoints are disabled")
				}
			}

			server := &http.Server{
				Addr:              serverCfg.Addr(),
				Handler:           httpctrl.New(httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var syncWorker *worker.SyncWorker
			if mode == types.ModeReceiver {
				syncWorker, err = worker.NewSyncWorker(uc.Sync, interval, usecase.TriggerScheduled)
				if err != nil {
					return goerr.Wrap(err, "failed to create sync worker")
				}
				// A pass in flight finishes even after a shutdown signal
				if err := syncWorker.Start(context.WithoutCancel(ctx)); err != nil {
					return goerr.Wrap(err, "failed to start sync worker")
				}
			}

			eg, egCtx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				logger.Info("Starting HTTP server", "addr", serverCfg.Addr(), "mode", mode)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})
			eg.Go(func() error {
				<-egCtx.Done()
				logger.Info("Shutting down")

				// Stop scheduling before draining HTTP so that no new pass starts
				if syncWorker != nil {
					syncWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				logger.Info("Server shutdown completed")
				return nil
			})

			return eg.Wait()
		},
	}
}
