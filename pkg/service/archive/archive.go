// Package archive stores the JSON of every sync report in Cloud Storage.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/Octonove/octo-user-copy/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// Bucket creates object writers. It is satisfied by the Cloud Storage
// adapter returned by NewGCSBucket.
type Bucket interface {
	NewWriter(ctx context.Context, object string) io.WriteCloser
}

type Archiver struct {
	bucket Bucket
	prefix string
}

var _ interfaces.ReportSink = &Archiver{}

// New creates an Archiver writing objects under prefix
func New(bucket Bucket, prefix string) *Archiver {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Archiver{bucket: bucket, prefix: prefix}
}

// ObjectName returns where report is stored
func (a *Archiver) ObjectName(report *model.SyncReport) string {
	ts := report.StartedAt.UTC()
	trigger := report.Trigger
	if trigger == "" {
		trigger = "unknown"
	}
	return fmt.Sprintf("%s%s/%s-%s.json", a.prefix, ts.Format("2006/01/02"), ts.Format("20060102T150405Z"), trigger)
}

func (a *Archiver) Publish(ctx context.Context, report *model.SyncReport) error {
	if report == nil {
		return nil
	}

	name := a.ObjectName(report)
	w := a.bucket.NewWriter(ctx, name)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		safe.Close(ctx, w)
		return goerr.Wrap(err, "failed to write sync report", goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize sync report", goerr.V("object", name))
	}

	logging.From(ctx).Debug("Archived sync report", "object", name)
	return nil
}

type gcsBucket struct {
	handle *storage.BucketHandle
}

func (b *gcsBucket) NewWriter(ctx context.Context, object string) io.WriteCloser {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = "application/json"
	return w
}

// NewGCSBucket opens bucket with application default credentials. The
// returned close function releases the client.
func NewGCSBucket(ctx context.Context, bucket string, opts ...option.ClientOption) (Bucket, func() error, error) {
	if bucket == "" {
		return nil, nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("bucket", bucket))
	}
	return &gcsBucket{handle: client.Bucket(bucket)}, client.Close, nil
}
