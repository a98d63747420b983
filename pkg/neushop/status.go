package neushop

import (
	"errors"
	"time"
)

// Status is the last visible outcome of a panel, widget or session operation.
// A zero Kind means the operation succeeded.
type Status struct {
	Op      string    `json:"op"`
	Kind    Kind      `json:"kind,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Failed reports whether the status records an error.
func (s Status) Failed() bool {
	return s.Kind != ""
}

// Empty reports whether no operation has been recorded yet.
func (s Status) Empty() bool {
	return s.Op == "" && s.Message == ""
}

// OKStatus records a successful operation.
func OKStatus(op, message string, at time.Time) Status {
	return Status{Op: op, Message: message, At: at}
}

// ErrorStatus classifies err into a visible status.
func ErrorStatus(op string, err error, at time.Time) Status {
	msg := ""
	if err != nil {
		msg = err.Error()
		if remote := RemoteMessage(err); remote != "" {
			msg = remote
		} else if typed := (*Error)(nil); errors.As(err, &typed) && typed.Message != "" {
			msg = typed.Message
		}
	}
	return Status{Op: op, Kind: KindOf(err), Message: msg, At: at}
}
