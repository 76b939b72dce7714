package session

// State represents where a session is in its lifecycle.
// We use iota to auto-assign integer values to each constant.
type State int

const (
	StateRunning     State = iota // 0 - both loops active, messages flowing
	StateTerminating              // 1 - termination triggered, loops unwinding
	StateClosed                   // 2 - both loops joined, transport closed, terminal
)

// String returns a readable name for logging.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// isValidTransition defines which state changes are legal.
// The lifecycle only moves forward: Running → Terminating → Closed.
// Closed is terminal — nothing can come after it.
func isValidTransition(from, to State) bool {
	allowed := map[State][]State{
		StateRunning:     {StateTerminating},
		StateTerminating: {StateClosed},
		StateClosed:      {}, // terminal, no exits
	}

	for _, valid := range allowed[from] {
		if to == valid {
			return true
		}
	}
	return false
}

// EndReason tells the caller why a session terminated.
// This feeds directly into observability — you can see in logs whether a
// session ended on a sentinel, a dead transport, or exhausted local input.
type EndReason int

const (
	ReasonUnknown          EndReason = iota // catch-all, should be rare
	ReasonSentinelReceived                  // peer sent the termination sentinel
	ReasonSentinelSent                      // local side sent the termination sentinel
	ReasonPeerClosed                        // peer closed the transport without a sentinel
	ReasonTransportError                    // a read or write on the transport failed
	ReasonInputExhausted                    // local input reached end-of-stream
)

// String returns a readable name for logging.
func (r EndReason) String() string {
	switch r {
	case ReasonSentinelReceived:
		return "sentinel_received"
	case ReasonSentinelSent:
		return "sentinel_sent"
	case ReasonPeerClosed:
		return "peer_closed"
	case ReasonTransportError:
		return "transport_error"
	case ReasonInputExhausted:
		return "input_exhausted"
	default:
		return "unknown"
	}
}
