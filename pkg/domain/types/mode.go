package types

import "github.com/m-mizutani/goerr/v2"

// Mode selects which side of the replication a process runs
type Mode string

const (
	// ModeEmitter exposes the export endpoints
	ModeEmitter Mode = "emitter"
	// ModeReceiver pulls from an emitter on a schedule
	ModeReceiver Mode = "receiver"
)

func (m Mode) IsValid() bool {
	return m == ModeEmitter || m == ModeReceiver
}

func (m Mode) String() string {
	return string(m)
}

// ParseMode parses a string into a Mode
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.IsValid() {
		return "", goerr.New("invalid mode", goerr.V("mode", s))
	}
	return m, nil
}
