package events

import "github.com/GriffinCanCode/hostwin/internal/shared/errs"

// ValidateEventName checks that name is non-empty and uses only
// alphanumerics, '-', '/', ':' and '_'.
func ValidateEventName(name string) error {
	if name == "" {
		return errs.Configuration("event", "event name must not be empty")
	}
	for _, c := range name {
		if !validNameRune(c) {
			return errs.Configuration("event", "invalid character %q in event name %q", c, name)
		}
	}
	return nil
}

func validNameRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '/', c == ':', c == '_':
		return true
	default:
		return false
	}
}

func validateTarget(t Target) error {
	switch t.Kind {
	case KindAny, KindApp:
		return nil
	case KindAnyLabel, KindWindow, KindWebview, KindWebviewWindow:
		if t.Label == "" {
			return errs.Configuration("target", "%s target requires a label", t.Kind)
		}
		return nil
	default:
		return errs.Configuration("target", "unknown target kind %q", t.Kind)
	}
}
