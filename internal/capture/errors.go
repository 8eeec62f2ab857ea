package capture

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrPaused is returned when an explicit snapshot is requested while
// capturing is paused. Background triggers are dropped silently instead.
var ErrPaused = errors.New("capturing is paused")

// RateLimitedError reports that the per-minute capture ceiling was hit.
// Unlike pause and exclusion drops this surfaces to the caller.
type RateLimitedError struct {
	Limit int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("capture rate exceeded (%d per minute)", e.Limit)
}

// NoTargetError reports that no capturable window matched the requested
// title and monitor fallback was disabled.
type NoTargetError struct {
	Title string
}

func (e *NoTargetError) Error() string {
	return fmt.Sprintf("no window matched title %q and monitor fallback is disabled", e.Title)
}

// ProviderError reports a display capture provider failure: permission
// denied, an empty monitor list, or a zero-dimension image.
type ProviderError struct {
	Detail string
	Cause  error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("capture provider error: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("capture provider error: %s", e.Detail)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
