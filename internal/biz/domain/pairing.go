package domain

import "fmt"

// PairingState is the visible state of one device-pairing run.
type PairingState string

const (
	PairingLoading   PairingState = "loading"
	PairingReady     PairingState = "ready"
	PairingExpired   PairingState = "expired"
	PairingConnected PairingState = "connected"
	PairingFailed    PairingState = "failed"
)

// Terminal reports whether the state ends the current pairing attempt.
// Expired and failed are user-recoverable via retry; connected is terminal
// for the run's lifetime.
func (s PairingState) Terminal() bool {
	return s == PairingExpired || s == PairingConnected || s == PairingFailed
}

// PairingEventType identifies the source of a pairing transition. The
// countdown ticker and the connection poller both emit events here, so the
// mutual-exclusion rule (first terminal transition wins) is enforced by the
// transition function rather than by timer plumbing.
type PairingEventType string

const (
	PairingEventImageReady     PairingEventType = "image_ready"
	PairingEventTick           PairingEventType = "tick"
	PairingEventRemoteOpen     PairingEventType = "remote_open"
	PairingEventTransportError PairingEventType = "transport_error"
	PairingEventRetry          PairingEventType = "retry"
)

// PairingEvent carries one transition request.
type PairingEvent struct {
	Type PairingEventType

	// Image is the base64 pairing image data URI, Code the raw pairing
	// string; at least one is set on image_ready.
	Image string
	Code  string

	// TTLTicks is the validity window in countdown ticks on image_ready.
	TTLTicks int

	ErrorText string
}

// PairingSnapshot is the full observable state of a pairing run.
type PairingSnapshot struct {
	State       PairingState `json:"state"`
	SecondsLeft int          `json:"seconds_left"`
	Image       string       `json:"image,omitempty"`
	Code        string       `json:"code,omitempty"`
	LastError   string       `json:"last_error,omitempty"`
}

// NewPairingSnapshot is the state every run starts in.
func NewPairingSnapshot() PairingSnapshot {
	return PairingSnapshot{State: PairingLoading}
}

// NextPairing applies one event to the current snapshot and returns the
// next one. Invalid transitions return an error and leave the caller's
// state untouched; in particular no tick is accepted outside ready, so the
// countdown can neither go negative nor expire twice.
func NextPairing(cur PairingSnapshot, ev PairingEvent) (PairingSnapshot, error) {
	switch ev.Type {
	case PairingEventImageReady:
		if cur.State != PairingLoading {
			return cur, fmt.Errorf("image_ready from state=%s", cur.State)
		}
		if ev.Image == "" && ev.Code == "" {
			return cur, fmt.Errorf("image_ready without image data")
		}
		if ev.TTLTicks <= 0 {
			return cur, fmt.Errorf("image_ready with ttl=%d", ev.TTLTicks)
		}
		return PairingSnapshot{
			State:       PairingReady,
			SecondsLeft: ev.TTLTicks,
			Image:       ev.Image,
			Code:        ev.Code,
		}, nil

	case PairingEventTick:
		if cur.State != PairingReady {
			return cur, fmt.Errorf("tick from state=%s", cur.State)
		}
		next := cur
		next.SecondsLeft--
		if next.SecondsLeft <= 0 {
			next.SecondsLeft = 0
			next.State = PairingExpired
		}
		return next, nil

	case PairingEventRemoteOpen:
		if cur.State != PairingReady && cur.State != PairingLoading {
			return cur, fmt.Errorf("remote_open from state=%s", cur.State)
		}
		next := cur
		next.State = PairingConnected
		next.SecondsLeft = 0
		return next, nil

	case PairingEventTransportError:
		switch cur.State {
		case PairingLoading, PairingReady, PairingExpired:
			next := cur
			next.State = PairingFailed
			next.SecondsLeft = 0
			next.LastError = ev.ErrorText
			return next, nil
		default:
			return cur, fmt.Errorf("transport_error from state=%s", cur.State)
		}

	case PairingEventRetry:
		if cur.State != PairingFailed && cur.State != PairingExpired {
			return cur, fmt.Errorf("retry from state=%s", cur.State)
		}
		return NewPairingSnapshot(), nil

	default:
		return cur, fmt.Errorf("unsupported pairing event: %q", ev.Type)
	}
}
