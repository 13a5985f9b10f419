package state

// Machine holds the current state for a single owner. It is not safe for
// concurrent use; background work talks to it only through events.
type Machine struct {
	current State
}

// NewMachine starts a machine in initial.
func NewMachine(initial State) *Machine {
	return &Machine{current: initial}
}

// Current returns the state as of the last Apply.
func (m *Machine) Current() State {
	return m.current
}

// Apply feeds e through Transition and returns the new state.
func (m *Machine) Apply(e Event) State {
	m.current = Transition(m.current, e)
	return m.current
}

// Done reports whether the machine reached Exiting.
func (m *Machine) Done() bool {
	_, ok := m.current.(Exiting)
	return ok
}

// Dispatches reports whether moving from prev to next on e produced a fresh
// analysis that a coordinator has to start. StartAnalysis only dispatches out
// of Configuring; Reanalyze restarts a run in any state that accepts it.
func Dispatches(prev State, e Event, next State) bool {
	a, ok := next.(Analyzing)
	if !ok || a.FilesProcessed != 0 || a.TotalFiles != 0 {
		return false
	}
	switch e.(type) {
	case StartAnalysis:
		_, configuring := prev.(Configuring)
		return configuring
	case Reanalyze:
		return true
	}
	return false
}
