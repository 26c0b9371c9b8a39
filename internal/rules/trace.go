package rules

import (
	"fmt"
	"strings"
)

// Operator names recorded in the trace.
const (
	OpWhen             = "when"
	OpDiscard          = "discard"
	OpRemember         = "remember"
	OpRememberConstant = "remember_constant"
	OpRememberResolved = "remember_resolved"
	OpThen             = "then"
	OpAggregate        = "aggregate"
	OpElse             = "else"
)

// Step records one operator that changed pipeline state.
// Operators that were no-ops (no captures, empty memory) are not recorded.
type Step struct {
	Op       string   `json:"op"`
	Arg      string   `json:"arg,omitempty"`
	Consumed []string `json:"consumed,omitempty"`
	Captures []string `json:"captures,omitempty"`
	Memory   []string `json:"memory,omitempty"`
	Emitted  *string  `json:"emitted,omitempty"`
	HadMatch bool     `json:"had_match"`
}

// String renders the step on one line, e.g.
//
//	when #([a-zA-Z0-9]{2,}) consumed=[#ABC] captures=[ABC] had_match=false
func (s Step) String() string {
	var b strings.Builder
	b.WriteString(s.Op)
	if s.Arg != "" {
		fmt.Fprintf(&b, " %s", s.Arg)
	}
	if len(s.Consumed) > 0 {
		fmt.Fprintf(&b, " consumed=[%s]", strings.Join(s.Consumed, " "))
	}
	if len(s.Captures) > 0 {
		fmt.Fprintf(&b, " captures=[%s]", strings.Join(s.Captures, " "))
	}
	if len(s.Memory) > 0 {
		fmt.Fprintf(&b, " memory=[%s]", strings.Join(s.Memory, " "))
	}
	if s.Emitted != nil {
		fmt.Fprintf(&b, " emitted=%q", *s.Emitted)
	}
	fmt.Fprintf(&b, " had_match=%t", s.HadMatch)
	return b.String()
}

func (p *Pipeline) record(step Step) {
	step.HadMatch = p.hadMatch
	p.trace = append(p.trace, step)
}

func emitted(part string) *string {
	return &part
}
