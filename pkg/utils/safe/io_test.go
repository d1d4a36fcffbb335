package safe_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Octonove/octo-user-copy/pkg/utils/safe"
	"github.com/m-mizutani/gt"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("close failed") }

func TestDrainAndClose(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader("remaining payload")}
	safe.DrainAndClose(context.Background(), body)

	gt.Bool(t, body.closed).True()
	rest, err := io.ReadAll(body)
	gt.NoError(t, err)
	gt.Array(t, rest).Length(0)
}

func TestNilSafety(t *testing.T) {
	ctx := context.Background()
	safe.Close(ctx, nil)
	safe.Write(ctx, nil, []byte("x"))
	safe.DrainAndClose(ctx, nil)
	safe.Close(ctx, failingCloser{})
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	safe.Write(context.Background(), &buf, []byte("ok"))
	gt.Value(t, buf.String()).Equal("ok")
}
