package trigger

import "sync"

// toggle records a control-topic state change at a monotonic instant.
type toggle struct {
	atMonoNS int64
	on       bool
}

// Gate tracks the on/off history of one control topic (spec.md §4.3:
// "last non-empty payload... toggles the trigger"; "Control state
// applies only to events occurring after the control packet's
// arrival"). Default state is enabled. A Gate is shared by every
// trigger/policy referencing the same control topic.
type Gate struct {
	mu      sync.Mutex
	toggles []toggle
}

// NewGate returns a Gate defaulting to enabled.
func NewGate() *Gate {
	return &Gate{}
}

// Apply records a control packet's effect, observed at atMonoNS.
// value is the raw control payload; per spec.md §4.3 it is matched
// case-insensitively against "on"/"off" and empty payloads are ignored.
func (g *Gate) Apply(atMonoNS int64, on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.toggles = append(g.toggles, toggle{atMonoNS: atMonoNS, on: on})
}

// EnabledAt reports whether the gate was enabled at the given monotonic
// instant: the state set by the last toggle strictly before monoNS, or
// enabled if no such toggle has arrived. A toggle does not affect events
// at its own timestamp.
func (g *Gate) EnabledAt(monoNS int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	enabled := true
	for _, t := range g.toggles {
		if t.atMonoNS >= monoNS {
			break
		}
		enabled = t.on
	}
	return enabled
}

// ParseControlValue interprets a control-topic packet payload per
// spec.md §4.3: case-insensitive, empty values are ignored (returns
// ok=false so the caller leaves the gate state untouched).
func ParseControlValue(payload string) (on bool, ok bool) {
	switch toLowerASCII(payload) {
	case "on":
		return true, true
	case "off":
		return false, true
	default:
		return false, false
	}
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
