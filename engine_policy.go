package markupmsg

import "fmt"

// UnknownTagPolicy decides what happens to a framework tag that no resolver
// in the chain accepted.
type UnknownTagPolicy int

const (
	UnknownPassthrough UnknownTagPolicy = iota // render the tag and its body as written
	UnknownAudit                               // passthrough, plus a warning and a metric
	UnknownDrop                                // remove the tag and its body from the output
	UnknownStrict                              // fail with UnresolvedTagError
)

func (p UnknownTagPolicy) String() string {
	switch p {
	case UnknownPassthrough:
		return "passthrough"
	case UnknownAudit:
		return "audit"
	case UnknownDrop:
		return "drop"
	case UnknownStrict:
		return "strict"
	default:
		return fmt.Sprintf("UnknownTagPolicy(%d)", int(p))
	}
}

// ParseUnknownTagPolicy maps a configuration value to a policy.
func ParseUnknownTagPolicy(s string) (UnknownTagPolicy, error) {
	switch s {
	case "", "passthrough":
		return UnknownPassthrough, nil
	case "audit":
		return UnknownAudit, nil
	case "drop":
		return UnknownDrop, nil
	case "strict":
		return UnknownStrict, nil
	default:
		return 0, fmt.Errorf("unknown tag policy %q", s)
	}
}
