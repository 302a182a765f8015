package schedule

import (
	"errors"
	"fmt"
)

// Stage errors. Each names the sampling stage whose attempt budget ran out.
var (
	ErrBalanceIdentities = errors.New("could not balance identities")
	ErrEpisodeLengths    = errors.New("could not generate episode lengths")
	ErrCueSequence       = errors.New("could not generate valid sequence")
	ErrPlanEpisodes      = errors.New("could not plan episodes")
)

// GenerationError reports a stage that exhausted its retry budget.
// errors.Is matches both the stage sentinel and the last cause.
type GenerationError struct {
	Stage    error // one of the Err* stage sentinels
	Attempts int   // attempts made before giving up
	Cause    error // last rejection reason, may be nil
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v after %d attempts: %v", e.Stage, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("%v after %d attempts", e.Stage, e.Attempts)
}

// Unwrap exposes the stage sentinel and the cause to errors.Is / errors.As.
func (e *GenerationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Stage}
	}
	return []error{e.Stage, e.Cause}
}

func newGenerationError(stage error, attempts int, cause error) *GenerationError {
	return &GenerationError{Stage: stage, Attempts: attempts, Cause: cause}
}

// ConfigurationError reports a Params field that cannot produce a schedule.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// IsConfigurationError reports whether err contains a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
