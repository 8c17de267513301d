package provision

import (
	"errors"

	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/monitoring"
)

// Failure classes. Returned errors wrap one of these together with the
// underlying runtime error, so both errors.Is checks and the diagnostic text
// survive.
var (
	ErrCreate  = errors.New("failed to create sandbox")
	ErrLaunch  = errors.New("failed to launch terminal agent")
	ErrCapture = errors.New("failed to capture ssh command")
)

// Outcome maps an error returned by Provision to its metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return monitoring.OutcomeSuccess
	case errors.Is(err, ErrCreate):
		return monitoring.OutcomeCreateFailed
	case errors.Is(err, ErrLaunch):
		return monitoring.OutcomeLaunchFailed
	case errors.Is(err, ErrCapture):
		return monitoring.OutcomeCaptureFailed
	default:
		return "unknown"
	}
}
