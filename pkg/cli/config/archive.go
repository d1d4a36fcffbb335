package config

import (
	"context"
	"log/slog"

	"github.com/Octonove/octo-user-copy/pkg/service/archive"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Archive holds CLI flags for storing sync reports in Cloud Storage
type Archive struct {
	bucket string
	prefix string
}

func (x *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket that keeps every sync report",
			Category:    "Archive",
			Destination: &x.bucket,
			Sources:     cli.EnvVars("OCTO_UC_ARCHIVE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object name prefix inside the archive bucket",
			Value:       "sync-reports",
			Category:    "Archive",
			Destination: &x.prefix,
			Sources:     cli.EnvVars("OCTO_UC_ARCHIVE_PREFIX"),
		},
	}
}

func (x Archive) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// Configure returns a nil archiver when no bucket is set. The returned
// closer is never nil.
func (x *Archive) Configure(ctx context.Context) (*archive.Archiver, func() error, error) {
	noop := func() error { return nil }
	if x.bucket == "" {
		return nil, noop, nil
	}

	bucket, closer, err := archive.NewGCSBucket(ctx, x.bucket)
	if err != nil {
		return nil, noop, goerr.Wrap(err, "failed to initialize archive bucket", goerr.V("bucket", x.bucket))
	}
	return archive.New(bucket, x.prefix), closer, nil
}
