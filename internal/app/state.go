package service

// State is the stage a reconciliation pass has reached.
type State int

// Pass states in order. Failed is terminal and reachable from any state
// before Applied.
const (
	StateInit State = iota
	StateSourceLoaded
	StateLedgerLoaded
	StateResolved
	StateDiffed
	StateApplied
	StateReported
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSourceLoaded:
		return "source_loaded"
	case StateLedgerLoaded:
		return "ledger_loaded"
	case StateResolved:
		return "resolved"
	case StateDiffed:
		return "diffed"
	case StateApplied:
		return "applied"
	case StateReported:
		return "reported"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
