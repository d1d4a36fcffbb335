package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// DateTimeLayout is the timestamp layout used on the wire for user_registered.
const DateTimeLayout = "2006-01-02 15:04:05"

// UserRecord is one account as exchanged between emitter and receiver.
// Optional string fields are pointers so that an absent field can be told
// apart from an explicitly empty one.
type UserRecord struct {
	ExternalID   ExternalID    `json:"ID"`
	Login        string        `json:"user_login"`
	Email        string        `json:"user_email"`
	PasswordHash string        `json:"user_pass" masq:"secret"`
	Nicename     *string       `json:"user_nicename,omitempty"`
	URL          *string       `json:"user_url,omitempty"`
	RegisteredAt *string       `json:"user_registered,omitempty"`
	DisplayName  *string       `json:"display_name,omitempty"`
	FirstName    *string       `json:"first_name,omitempty"`
	LastName     *string       `json:"last_name,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Roles        RoleList      `json:"roles"`
	Capabilities CapabilityMap `json:"capabilities"`
	Meta         Meta          `json:"meta"`
}

// RemoteUser is one element of an emitter's users array. Err is set when the
// element could not be decoded, in which case Record holds whatever was read.
type RemoteUser struct {
	Record UserRecord
	Err    error
}

// DecodeUserRecords decodes every element of a users array on its own so that
// one malformed element does not hide the others.
func DecodeUserRecords(elems []json.RawMessage) []RemoteUser {
	out := make([]RemoteUser, len(elems))
	for i, raw := range elems {
		if err := json.Unmarshal(raw, &out[i].Record); err != nil {
			out[i].Err = goerr.Wrap(err, "invalid user record", goerr.V("index", i))
		}
	}
	return out
}

// ExternalID is the identifier an account has on the emitter. Emitters may
// serialize it as a number or a string.
type ExternalID string

func (id *ExternalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return goerr.Wrap(err, "invalid ID")
		}
		*id = ExternalID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return goerr.Wrap(err, "ID must be a string or a number")
	}
	*id = ExternalID(n.String())
	return nil
}

func (id ExternalID) String() string {
	return string(id)
}

// RoleList accepts either a JSON array of role keys or an object whose values
// are role keys.
type RoleList []string

func (l *RoleList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var obj map[string]string
		if err := json.Unmarshal(data, &obj); err != nil {
			return goerr.Wrap(err, "roles object must map to role keys")
		}
		out := make(RoleList, 0, len(obj))
		for _, v := range obj {
			out = append(out, v)
		}
		*l = out
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return goerr.Wrap(err, "roles must be a list of role keys")
	}
	*l = arr
	return nil
}

// Meta holds free-form per-account metadata. An empty JSON array decodes to
// an empty map.
type Meta map[string]any

func (m *Meta) UnmarshalJSON(data []byte) error {
	if isEmptyJSONArray(data) {
		*m = Meta{}
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return goerr.Wrap(err, "meta must be an object")
	}
	*m = raw
	return nil
}

// ParseTimestamp reads a timestamp in any of the forms emitters produce:
// "2006-01-02 15:04:05" (UTC), RFC 3339, or unix seconds.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, goerr.New("empty timestamp")
	}
	if t, err := time.ParseInLocation(DateTimeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, goerr.New("unrecognized timestamp", goerr.V("value", s))
}

// TimestampValue interprets a decoded JSON meta value as a timestamp.
func TimestampValue(v any) (time.Time, error) {
	switch x := v.(type) {
	case string:
		return ParseTimestamp(x)
	case float64:
		return time.Unix(int64(x), 0).UTC(), nil
	case int64:
		return time.Unix(x, 0).UTC(), nil
	case int:
		return time.Unix(int64(x), 0).UTC(), nil
	case json.Number:
		return ParseTimestamp(x.String())
	case time.Time:
		return x, nil
	default:
		return time.Time{}, goerr.New("unsupported timestamp value", goerr.V("value", v))
	}
}

// StringOr returns *p, or def when p is nil.
func StringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
