// BYZRA ⸻ internal/meta/session.go
// per-file read -> render -> clear lifecycle

package meta

import "fmt"

type State int

const (
	StateIdle State = iota
	StateReading
	StateReadFailed
	StateRead
	StateRendering
	StateRendered
	StateWriting
	StateWriteFailed
	StateCleared
)

var stateNames = [...]string{
	"Idle", "Reading", "ReadFailed", "Read", "Rendering",
	"Rendered", "Writing", "WriteFailed", "Cleared",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// terminal for the file; a new Session is needed to touch it again
func (s State) Terminal() bool {
	return s == StateReadFailed || s == StateWriteFailed || s == StateCleared
}

// Session walks one file through the processing states. It is not safe
// for concurrent use.
type Session struct {
	src      Source
	path     string
	state    State
	snapshot Snapshot
	view     View
}

func NewSession(src Source, path string) *Session {
	return &Session{src: src, path: path}
}

func (s *Session) State() State { return s.state }
func (s *Session) Path() string { return s.path }

func (s *Session) Read() (Snapshot, error) {
	if s.state != StateIdle {
		return Snapshot{}, s.invalid("read")
	}

	s.state = StateReading
	snap, err := Read(s.src, s.path)
	if err != nil {
		s.state = StateReadFailed
		return Snapshot{}, err
	}

	s.snapshot = snap
	s.state = StateRead
	return snap, nil
}

func (s *Session) Render() (View, error) {
	if s.state != StateRead {
		return View{}, s.invalid("render")
	}

	s.state = StateRendering
	s.view = Render(s.snapshot)
	s.state = StateRendered
	return s.view, nil
}

// Clear is allowed once the snapshot was read; rendering is optional.
func (s *Session) Clear() error {
	if s.state != StateRead && s.state != StateRendered {
		return s.invalid("clear")
	}

	s.state = StateWriting
	if err := ClearAndSave(s.src, s.path); err != nil {
		s.state = StateWriteFailed
		return err
	}

	s.state = StateCleared
	return nil
}

// snapshot taken by Read, still valid after a failed write
func (s *Session) Snapshot() Snapshot { return s.snapshot }

func (s *Session) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s in state %s", ErrInvalidTransition, op, s.state)
}
