package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
)

var (
	okLabel   = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	dim       = color.New(color.Faint).SprintFunc()
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	return nil
}

func printReport(w io.Writer, report *model.SyncReport) {
	if report.Success {
		fmt.Fprintf(w, "%s %s\n", okLabel("OK"), report.Message)
	} else {
		fmt.Fprintf(w, "%s %s\n", failLabel("FAILED"), report.Message)
	}

	if report.Stats != nil {
		fmt.Fprintf(w, "  created: %d\n", report.Stats.Created)
		fmt.Fprintf(w, "  updated: %d\n", report.Stats.Updated)
		fmt.Fprintf(w, "  skipped: %d\n", report.Stats.Skipped)
		fmt.Fprintf(w, "  errors:  %d\n", report.Stats.Errors)
		fmt.Fprintf(w, "  roles created: %d\n", report.RolesCreated)
	}
	fmt.Fprintln(w, dim(fmt.Sprintf("  trigger=%s duration=%s", report.Trigger, report.Duration().Round(time.Millisecond))))
}

func printConnection(w io.Writer, res *model.ConnectionResult) {
	label := okLabel("OK")
	if !res.Success {
		label = failLabel("FAILED")
	}
	fmt.Fprintf(w, "%s [%s] %s\n", label, res.Status, res.Message)
	if res.HTTPStatus != 0 {
		fmt.Fprintf(w, "  http status: %d\n", res.HTTPStatus)
	}
	if res.Success {
		fmt.Fprintf(w, "  roles: %d\n", res.RoleCount)
	}
}
