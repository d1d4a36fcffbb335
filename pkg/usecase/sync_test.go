package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/Octonove/octo-user-copy/pkg/repository/memory"
	"github.com/Octonove/octo-user-copy/pkg/service/emitter"
	"github.com/Octonove/octo-user-copy/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestSyncRun(t *testing.T) {
	ctx := context.Background()

	t.Run("new editor is created", func(t *testing.T) {
		repo := memory.New()
		client := newFakeEmitter(model.RoleMap{}, model.UserRecord{
			ExternalID: "1",
			Login:      "alice",
			Email:      "alice@example.com",
			Roles:      model.RoleList{"editor"},
		})
		uc := usecase.New(repo, usecase.WithEmitter(client))

		report := uc.Sync.Run(ctx, usecase.TriggerManual)
		gt.Bool(t, report.Success).True()
		gt.Value(t, report.Message).Equal("Sync completed: 1 created, 0 updated, 0 skipped, 0 errors")
		gt.Value(t, report.Stats).NotNil().Required()
		gt.Number(t, report.Stats.Created).Equal(1)
		gt.Number(t, report.TotalProcessed).Equal(1)
		gt.Value(t, report.Trigger).Equal(usecase.TriggerManual)

		user, err := repo.User().GetByLogin(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Value(t, user.Capabilities).Equal(model.CapabilityMap{"editor": true})
		gt.Number(t, user.Level).Equal(7)
	})

	t.Run("counters always add up to the records processed", func(t *testing.T) {
		records := []model.UserRecord{
			{ExternalID: "1", Login: "a", Email: "a@example.com"},
			{ExternalID: "2", Login: "", Email: "b@example.com"},
			{ExternalID: "3", Login: "c", Email: "c@example.com", RegisteredAt: model.Ptr("not a date")},
			{ExternalID: "4", Login: "d", Email: "a@example.com"},
			{ExternalID: "5", Login: "a", Email: "a@example.com"},
		}
		uc := usecase.New(memory.New(), usecase.WithEmitter(newFakeEmitter(nil, records...)))

		report := uc.Sync.Run(ctx, usecase.TriggerCLI)
		gt.Bool(t, report.Success).True()
		gt.Number(t, report.TotalProcessed).Equal(len(records))
		gt.Number(t, report.Stats.Total()).Equal(report.TotalProcessed)
		gt.Number(t, report.Stats.Created).Equal(1)
		gt.Number(t, report.Stats.Updated).Equal(2)
		gt.Number(t, report.Stats.Errors).Equal(2)
		gt.Number(t, report.Stats.Skipped).Equal(0)
	})

	t.Run("second pass updates instead of creating", func(t *testing.T) {
		repo := memory.New()
		client := newFakeEmitter(nil,
			model.UserRecord{ExternalID: "1", Login: "alice", Email: "alice@example.com"},
			model.UserRecord{ExternalID: "2", Login: "bob", Email: "bob@example.com"},
		)
		uc := usecase.New(repo, usecase.WithEmitter(client))

		first := uc.Sync.Run(ctx, usecase.TriggerManual)
		gt.Number(t, first.Stats.Created).Equal(2)
		second := uc.Sync.Run(ctx, usecase.TriggerManual)
		gt.Number(t, second.Stats.Created).Equal(0)
		gt.Number(t, second.Stats.Updated).Equal(2)
	})

	t.Run("incomplete configuration makes no request", func(t *testing.T) {
		client := newFakeEmitter(nil)
		client.configured = false
		uc := usecase.New(memory.New(), usecase.WithEmitter(client))

		report := uc.Sync.Run(ctx, usecase.TriggerManual)
		gt.Bool(t, report.Success).False()
		gt.Value(t, report.Message).Equal("configuration incomplete")
		gt.Value(t, report.Stats).Nil()
		gt.Number(t, client.rolesCalls.Load()).Equal(0)
		gt.Number(t, client.usersCalls.Load()).Equal(0)

		noClient := usecase.New(memory.New()).Sync.Run(ctx, usecase.TriggerManual)
		gt.Value(t, noClient.Message).Equal("configuration incomplete")
	})

	t.Run("roles failure stops before fetching users", func(t *testing.T) {
		client := newFakeEmitter(nil, model.UserRecord{Login: "alice", Email: "alice@example.com"})
		client.rolesErr = &emitter.RequestError{Kind: emitter.ErrTransport, Endpoint: "roles", Cause: fmt.Errorf("connection refused")}
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithEmitter(client))

		report := uc.Sync.Run(ctx, usecase.TriggerManual)
		gt.Bool(t, report.Success).False()
		gt.Value(t, report.Message).Equal("roles request failed: connection refused")
		gt.Number(t, client.usersCalls.Load()).Equal(0)

		n, err := repo.User().Count(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(0)
	})

	t.Run("invalid users payload fails the pass", func(t *testing.T) {
		client := newFakeEmitter(model.RoleMap{"customer": {Key: "customer", Name: "Customer"}})
		client.usersErr = &emitter.RequestError{Kind: emitter.ErrInvalidPayload, Endpoint: "users", Cause: fmt.Errorf("users payload is not a JSON array")}
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithEmitter(client))

		report := uc.Sync.Run(ctx, usecase.TriggerManual)
		gt.Bool(t, report.Success).False()
		gt.String(t, report.Message).Contains("not a JSON array")

		// roles are reconciled before users are fetched
		_, err := repo.Role().Get(ctx, "customer")
		gt.NoError(t, err)
	})

	t.Run("undecodable elements are counted as errors", func(t *testing.T) {
		client := newFakeEmitter(nil)
		client.rawUsers = []json.RawMessage{
			json.RawMessage(`{"ID":1,"user_login":"alice","user_email":"alice@example.com","roles":["editor"]}`),
			json.RawMessage(`"garbage"`),
			json.RawMessage(`{"ID":3,"user_login":7,"user_email":"x@example.com"}`),
		}
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithEmitter(client))

		report := uc.Sync.Run(ctx, usecase.TriggerManual)
		gt.Bool(t, report.Success).True()
		gt.Value(t, report.Stats).NotNil().Required()
		gt.Number(t, report.Stats.Created).Equal(1)
		gt.Number(t, report.Stats.Errors).Equal(2)
		gt.Number(t, report.TotalProcessed).Equal(3)

		_, err := repo.User().GetByLogin(ctx, "alice")
		gt.NoError(t, err)

		logs, err := uc.Activity.List(ctx, 0)
		gt.NoError(t, err).Required()
		failures := 0
		for _, entry := range logs {
			if entry.Type == types.LogTypeError && entry.Message == "Failed to sync user" {
				failures++
			}
		}
		gt.Number(t, failures).Equal(2)
	})

	t.Run("panic in one record is counted as an error", func(t *testing.T) {
		mem := memory.New()
		repo := &faultyRepository{
			Repository: mem,
			users:      &faultyUsers{UserRepository: mem.User(), panicLogin: "boom"},
		}
		client := newFakeEmitter(nil,
			model.UserRecord{ExternalID: "1", Login: "boom", Email: "boom@example.com"},
			model.UserRecord{ExternalID: "2", Login: "fine", Email: "fine@example.com"},
		)
		uc := usecase.New(repo, usecase.WithEmitter(client))

		report := uc.Sync.Run(ctx, usecase.TriggerManual)
		gt.Bool(t, report.Success).True()
		gt.Number(t, report.Stats.Errors).Equal(1)
		gt.Number(t, report.Stats.Created).Equal(1)
	})

	t.Run("writes the activity log", func(t *testing.T) {
		client := newFakeEmitter(nil, model.UserRecord{ExternalID: "1", Login: "alice", Email: "alice@example.com"})
		uc := usecase.New(memory.New(), usecase.WithEmitter(client))

		report := uc.Sync.Run(ctx, usecase.TriggerScheduled)
		logs, err := uc.Activity.List(ctx, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, logs).Length(3).Required()

		// newest first
		gt.Value(t, logs[0].Type).Equal(types.LogTypeSuccess)
		gt.Value(t, logs[0].Message).Equal(report.Message)
		gt.Value(t, logs[1].Type).Equal(types.LogTypeInfo)
		gt.Value(t, logs[2].Message).Equal("Sync started")
	})

	t.Run("publishes the report to sinks", func(t *testing.T) {
		sink := &recordingSink{}
		client := newFakeEmitter(nil)
		uc := usecase.New(memory.New(), usecase.WithEmitter(client), usecase.WithReportSinks(sink))

		report := uc.Sync.Run(ctx, usecase.TriggerManual)
		uc.Wait()

		published := sink.Reports()
		gt.Array(t, published).Length(1).Required()
		gt.Value(t, published[0]).Equal(report)
	})

	t.Run("records start and finish times", func(t *testing.T) {
		start := testNow
		var calls int
		clock := func() time.Time {
			calls++
			return start.Add(time.Duration(calls) * time.Second)
		}
		uc := usecase.New(memory.New(), usecase.WithEmitter(newFakeEmitter(nil)), usecase.WithClock(clock))

		report := uc.Sync.Run(ctx, usecase.TriggerManual)
		gt.Bool(t, report.FinishedAt.After(report.StartedAt)).True()
	})
}

func TestSyncRunConcurrentCallersShareOnePass(t *testing.T) {
	ctx := context.Background()
	client := newFakeEmitter(nil, model.UserRecord{ExternalID: "1", Login: "alice", Email: "alice@example.com"})
	client.release = make(chan struct{})
	uc := usecase.New(memory.New(), usecase.WithEmitter(client))

	const callers = 4
	reports := make([]*model.SyncReport, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = uc.Sync.Run(ctx, usecase.TriggerManual)
		}()
	}

	// Wait for the first pass to reach the users fetch, then give the other
	// callers time to join it.
	for client.usersCalls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(client.release)
	wg.Wait()

	gt.Number(t, client.rolesCalls.Load()).Equal(1)
	gt.Number(t, client.usersCalls.Load()).Equal(1)
	for _, r := range reports {
		gt.Value(t, r).Equal(reports[0])
	}
	gt.Number(t, reports[0].Stats.Created).Equal(1)
}

func TestTestConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("success reports the role count", func(t *testing.T) {
		client := newFakeEmitter(model.RoleMap{
			"editor":   {Key: "editor"},
			"customer": {Key: "customer"},
		})
		uc := usecase.New(memory.New(), usecase.WithEmitter(client))

		result := uc.Sync.TestConnection(ctx)
		gt.Bool(t, result.Success).True()
		gt.Value(t, result.Status).Equal(model.ConnectionOK)
		gt.Number(t, result.RoleCount).Equal(2)
		gt.Number(t, client.usersCalls.Load()).Equal(0)
	})

	t.Run("not configured", func(t *testing.T) {
		client := newFakeEmitter(nil)
		client.configured = false
		uc := usecase.New(memory.New(), usecase.WithEmitter(client))

		result := uc.Sync.TestConnection(ctx)
		gt.Bool(t, result.Success).False()
		gt.Value(t, result.Status).Equal(model.ConnectionNotReady)
		gt.Number(t, client.rolesCalls.Load()).Equal(0)
	})

	t.Run("rejected key", func(t *testing.T) {
		client := newFakeEmitter(nil)
		client.rolesErr = &emitter.RequestError{Kind: emitter.ErrUnauthorized, Endpoint: "roles", StatusCode: 403}
		uc := usecase.New(memory.New(), usecase.WithEmitter(client))

		result := uc.Sync.TestConnection(ctx)
		gt.Bool(t, result.Success).False()
		gt.Value(t, result.Status).Equal(model.ConnectionUnauthorized)
		gt.Number(t, result.HTTPStatus).Equal(403)
	})
}
