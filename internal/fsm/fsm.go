// Package fsm defines the session lifecycle states and legal transitions.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateListening State = "listening"
	StateStopping  State = "stopping"
)

const (
	EventStart  Event = "start"  // idle -> starting
	EventListen Event = "listen" // starting -> listening
	EventStop   Event = "stop"   // listening -> stopping
	EventCancel Event = "cancel" // listening/stopping -> stopping
	EventFinish Event = "finish" // listening/stopping -> idle (terminal outcome emitted)
	EventFail   Event = "fail"   // any -> idle (failure ends the session)
)

// Transition returns the next state for event or an error when the event is
// not legal from the current state. EventFail is accepted everywhere because
// every failure path ends the session.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateStarting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateStarting:
		switch event {
		case EventListen:
			return StateListening, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventStop, EventCancel:
			return StateStopping, nil
		case EventFinish:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateStopping:
		switch event {
		case EventCancel:
			return StateStopping, nil
		case EventFinish:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
