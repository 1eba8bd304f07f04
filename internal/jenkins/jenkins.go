package jenkins

// MaxChannels is the most jobs the registry tracks at once. It matches the
// number of channels a lamp can display.
const MaxChannels = 20

// Field limits match the device's fixed-size record fields. Longer values
// are truncated, not rejected.
const (
	MaxJobNameLen = 47
	MaxServerLen  = 31
)

// State is the lifecycle state of a job.
type State int

const (
	StateOff State = iota
	StateUnknown
	StateRunning
	StateIdle
)

// ParseState maps a wire string to a State. Unrecognised input is
// StateUnknown.
func ParseState(s string) State {
	switch s {
	case "off":
		return StateOff
	case "running":
		return StateRunning
	case "idle":
		return StateIdle
	default:
		return StateUnknown
	}
}

func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateRunning:
		return "running"
	case StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Result is the outcome of a job's last build. Values order from harmless to
// severe, so the worst of a set is the numeric maximum.
type Result int

const (
	ResultOff Result = iota
	ResultUnknown
	ResultSuccess
	ResultUnstable
	ResultFailure
)

// ParseResult maps a wire string to a Result. Unrecognised input is
// ResultUnknown.
func ParseResult(s string) Result {
	switch s {
	case "off":
		return ResultOff
	case "success":
		return ResultSuccess
	case "unstable":
		return ResultUnstable
	case "failure":
		return ResultFailure
	default:
		return ResultUnknown
	}
}

func (r Result) String() string {
	switch r {
	case ResultOff:
		return "off"
	case ResultSuccess:
		return "success"
	case ResultUnstable:
		return "unstable"
	case ResultFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Info is one job record as delivered by the backend.
type Info struct {
	Result Result
	State  State
	Job    string // job name, at most MaxJobNameLen bytes
	Server string // server name, at most MaxServerLen bytes
	Time   int32  // backend timestamp, seconds since the epoch
}

// Worst returns the most severe result among jobs that are switched on.
// An empty or all-off set yields ResultOff.
func Worst(infos []Info) Result {
	worst := ResultOff
	for _, info := range infos {
		if info.State == StateOff {
			continue
		}
		if info.Result > worst {
			worst = info.Result
		}
	}
	return worst
}
