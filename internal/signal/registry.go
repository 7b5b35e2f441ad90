package signal

import "fmt"

// New builds a strategy by name from a parameter bag.
func New(name string, params Params) (Strategy, error) {
	switch name {
	case "supertrend":
		return NewSupertrendStrategy(params), nil
	case "turtle":
		return NewTurtleStrategy(params), nil
	case "voloverlay":
		return NewVolOverlayStrategy(params), nil
	default:
		return nil, fmt.Errorf("unsupported strategy: %q", name)
	}
}

// Names lists the registered strategy names.
func Names() []string {
	return []string{"supertrend", "turtle", "voloverlay"}
}
