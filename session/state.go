// Package session implements the per-peer session state machine: the
// strictly one-way progression from offline handshake through to in-game
// play, plus the peer identity and negotiated parameters attached to a
// connected client. Transitions are held in an explicit table rather than
// scattered state checks.
package session

import "fmt"

// State names a stage of the Bedrock connection lifecycle. States are
// strictly one-way: no state may be re-entered, including after a
// reconnect.
type State int

const (
	OfflineHandshake State = iota
	ConnectedHandshake
	NetworkSettings
	Login
	Encryption
	ResourcePacks
	StartGame
	ChunkSync
	InGame
	Disconnecting
)

func (s State) String() string {
	switch s {
	case OfflineHandshake:
		return "OfflineHandshake"
	case ConnectedHandshake:
		return "ConnectedHandshake"
	case NetworkSettings:
		return "NetworkSettings"
	case Login:
		return "Login"
	case Encryption:
		return "Encryption"
	case ResourcePacks:
		return "ResourcePacks"
	case StartGame:
		return "StartGame"
	case ChunkSync:
		return "ChunkSync"
	case InGame:
		return "InGame"
	case Disconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// transitions lists, for each state, the single state it may advance to.
// The chain is linear; Disconnecting is reachable from any state, handled
// specially in Machine.Disconnect rather than listed per-row here.
var transitions = map[State]State{
	OfflineHandshake:   ConnectedHandshake,
	ConnectedHandshake: NetworkSettings,
	NetworkSettings:    Login,
	Login:              Encryption,
	Encryption:         ResourcePacks,
	ResourcePacks:      StartGame,
	StartGame:          ChunkSync,
	ChunkSync:          InGame,
}

// ProtocolViolation reports an unexpected packet, or an illegal state
// transition attempt, for the session's current state.
type ProtocolViolation struct {
	State   State
	Message string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("session: protocol violation in state %s: %s", e.State, e.Message)
}

// Machine drives one peer through the states above. It never allows a
// state to be re-entered; Advance only ever moves forward along the fixed
// chain, and Disconnect is a one-way trapdoor out of any state.
type Machine struct {
	current State
	visited map[State]bool
}

// NewMachine returns a Machine starting at OfflineHandshake.
func NewMachine() *Machine {
	return &Machine{
		current: OfflineHandshake,
		visited: map[State]bool{OfflineHandshake: true},
	}
}

// Current returns the machine's current state.
func (m *Machine) Current() State { return m.current }

// Advance moves the machine to the next state in the chain. It fails if
// the machine is not in the state immediately preceding next, or if next
// has already been visited (a reconnect-style re-entry attempt).
func (m *Machine) Advance(next State) error {
	want, ok := transitions[m.current]
	if !ok || want != next {
		return &ProtocolViolation{State: m.current, Message: fmt.Sprintf("cannot advance to %s", next)}
	}
	if m.visited[next] {
		return &ProtocolViolation{State: m.current, Message: fmt.Sprintf("state %s already visited", next)}
	}
	m.current = next
	m.visited[next] = true
	return nil
}

// Disconnect forces the machine into Disconnecting from any state.
func (m *Machine) Disconnect() {
	m.current = Disconnecting
	m.visited[Disconnecting] = true
}

// RequireState returns a ProtocolViolation if the machine is not currently
// in want — the guard every inbound packet handler calls before acting on
// a packet whose meaning is state-dependent.
func (m *Machine) RequireState(want State, packetName string) error {
	if m.current != want {
		return &ProtocolViolation{
			State:   m.current,
			Message: fmt.Sprintf("received %s while in state %s, expected %s", packetName, m.current, want),
		}
	}
	return nil
}
