package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestUserRecord_UnmarshalJSON(t *testing.T) {
	t.Run("full record from emitter", func(t *testing.T) {
		input := `{
			"ID": 42,
			"user_login": "alice",
			"user_email": "a@x.com",
			"user_pass": "$P$BHASH",
			"user_nicename": "",
			"user_registered": "2020-01-02 03:04:05",
			"display_name": "Alice",
			"roles": ["editor"],
			"capabilities": {"editor": true, "edit_posts": true},
			"meta": {"locale": "ja", "wp_user_level": "7"}
		}`

		var rec model.UserRecord
		gt.NoError(t, json.Unmarshal([]byte(input), &rec)).Required()

		gt.Value(t, rec.ExternalID).Equal(model.ExternalID("42"))
		gt.Value(t, rec.Login).Equal("alice")
		gt.Value(t, rec.PasswordHash).Equal("$P$BHASH")
		gt.Value(t, rec.Nicename).NotNil()
		gt.Value(t, *rec.Nicename).Equal("")
		gt.Value(t, rec.URL).Nil()
		gt.Value(t, model.StringOr(rec.DisplayName, "x")).Equal("Alice")
		gt.Value(t, model.StringOr(rec.FirstName, "none")).Equal("none")
		gt.Array(t, []string(rec.Roles)).Equal([]string{"editor"})
		gt.Value(t, rec.Meta["locale"]).Equal(any("ja"))
	})

	t.Run("php style empty collections", func(t *testing.T) {
		input := `{"ID":"7","user_login":"bob","user_email":"b@x.com","roles":{"1":"author"},"capabilities":[],"meta":[]}`

		var rec model.UserRecord
		gt.NoError(t, json.Unmarshal([]byte(input), &rec)).Required()
		gt.Value(t, rec.ExternalID).Equal(model.ExternalID("7"))
		gt.Array(t, []string(rec.Roles)).Equal([]string{"author"})
		gt.Number(t, len(rec.Capabilities)).Equal(0)
		gt.Number(t, len(rec.Meta)).Equal(0)
	})

	t.Run("non-empty array meta is rejected", func(t *testing.T) {
		var rec model.UserRecord
		gt.Error(t, json.Unmarshal([]byte(`{"user_login":"x","meta":["a"]}`), &rec))
	})
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{name: "datetime", input: "2020-01-02 03:04:05"},
		{name: "rfc3339", input: "2020-01-02T03:04:05Z"},
		{name: "unix seconds", input: "1577934245"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.ParseTimestamp(tt.input)
			gt.NoError(t, err).Required()
			gt.Bool(t, got.Equal(want)).True()
		})
	}

	t.Run("garbage", func(t *testing.T) {
		_, err := model.ParseTimestamp("yesterday")
		gt.Error(t, err)
	})

	t.Run("numeric meta value", func(t *testing.T) {
		got, err := model.TimestampValue(float64(1577934245))
		gt.NoError(t, err).Required()
		gt.Bool(t, got.Equal(want)).True()
	})
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"alice":          "alice",
		"Alice Smith":    "alice-smith",
		"  john.doe@x  ": "john-doe-x",
		"user_01":        "user_01",
		"a--b":           "a--b",
		"mary-jane":      "mary-jane",
		"a..b":           "a-b",
		"-edge-":         "edge",
		" --x!! ":        "x",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			gt.Value(t, model.Slugify(in)).Equal(want)
		})
	}
}

func TestSyncStats(t *testing.T) {
	var s model.SyncStats
	for _, o := range []model.Outcome{model.OutcomeCreated, model.OutcomeUpdated, model.OutcomeUpdated, model.OutcomeErrors, model.Outcome("bogus")} {
		s.Add(o)
	}
	gt.Value(t, s).Equal(model.SyncStats{Created: 1, Updated: 2, Errors: 2})
	gt.Number(t, s.Total()).Equal(5)
	gt.Value(t, s.Summary()).Equal("Sync completed: 1 created, 2 updated, 0 skipped, 2 errors")
}

func TestUser_Clone(t *testing.T) {
	u := &model.User{
		ID:           model.NewUserID(),
		Login:        "alice",
		Capabilities: model.CapabilityMap{"editor": true},
		Meta:         map[string]any{"locale": "en"},
	}
	c := u.Clone()
	c.Capabilities["administrator"] = true
	c.Meta["locale"] = "ja"

	gt.Bool(t, u.Capabilities["administrator"]).False()
	gt.Value(t, u.Meta["locale"]).Equal(any("en"))
	gt.Bool(t, u.HasAnyRole([]string{"administrator", "editor"})).True()
	gt.Bool(t, u.HasAnyRole([]string{"author"})).False()
}
