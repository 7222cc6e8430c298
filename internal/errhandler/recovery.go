package errhandler

import (
	"docsearch/pkg/apperror"

	"github.com/samber/lo"
)

// Action is a user-selectable response to a classified error.
type Action string

const (
	ActionRetry          Action = "retry"
	ActionRefresh        Action = "refresh"
	ActionNavigateHome   Action = "navigate_home"
	ActionContactSupport Action = "contact_support"
	ActionDismiss        Action = "dismiss"
)

// ErrorRecovery is one recovery option offered for an error.
type ErrorRecovery struct {
	Action  Action
	Label   string
	Handler func() error
}

// Hooks supplies the effects behind the non-retry actions. Nil hooks are no-ops.
type Hooks struct {
	Refresh        func() error
	NavigateHome   func() error
	ContactSupport func() error
	Dismiss        func() error
}

func orNoop(fn func() error) func() error {
	if fn == nil {
		return func() error { return nil }
	}
	return fn
}

func retryLabel(t apperror.Type) string {
	switch t {
	case apperror.TypeNetwork:
		return "Retry Connection"
	case apperror.TypeUpload:
		return "Try Upload Again"
	case apperror.TypeSearch:
		return "Search Again"
	default:
		return "Try Again"
	}
}

// RecoveryOptions assembles the ordered options for err. Options are unique by action
// and the list always ends with dismiss.
func RecoveryOptions(err *apperror.AppError, retry func() error, hooks Hooks) []ErrorRecovery {
	options := make([]ErrorRecovery, 0, 5)

	if err.Retryable() && retry != nil {
		options = append(options, ErrorRecovery{Action: ActionRetry, Label: retryLabel(err.Type()), Handler: retry})
	}

	refresh := ErrorRecovery{Action: ActionRefresh, Label: "Refresh Page", Handler: orNoop(hooks.Refresh)}
	home := ErrorRecovery{Action: ActionNavigateHome, Label: "Go Home", Handler: orNoop(hooks.NavigateHome)}

	switch err.Type() {
	case apperror.TypeAPI:
		if err.StatusCode() >= 400 && err.StatusCode() < 500 {
			options = append(options, home)
		}
	case apperror.TypeUpload:
		options = append(options, home)
	case apperror.TypeSearch:
	default:
		// network, timeout, validation, auth, permission, unknown
		options = append(options, refresh)
	}

	if err.Severity() == apperror.SeverityCritical {
		options = append(options, ErrorRecovery{
			Action:  ActionContactSupport,
			Label:   "Contact Support",
			Handler: orNoop(hooks.ContactSupport),
		})
	}

	options = lo.UniqBy(options, func(o ErrorRecovery) Action { return o.Action })

	return append(options, ErrorRecovery{Action: ActionDismiss, Label: "Dismiss", Handler: orNoop(hooks.Dismiss)})
}
