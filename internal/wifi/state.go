package wifi

// State is the supervisor's current mode.
type State int

const (
	StateOffline State = iota
	StateOnline
	StateConnected
	StateFail
)

func (s State) String() string {
	switch s {
	case StateOnline:
		return "ONLINE"
	case StateConnected:
		return "CONNECTED"
	case StateFail:
		return "FAIL"
	default:
		return "OFFLINE"
	}
}
