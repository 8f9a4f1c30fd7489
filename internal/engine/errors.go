package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"cloutfarm/internal/platform"
	"cloutfarm/internal/types"
)

// ValidationError reports bad or missing input, e.g. an unknown campaign or a
// campaign with no platforms configured.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// WindowConstraintViolation reports a live-mode timing rule blocking the
// operation: outside the campaign date window, or the minimum interval since
// the previous post or comment has not elapsed yet.
type WindowConstraintViolation struct {
	Msg string
}

func (e *WindowConstraintViolation) Error() string { return e.Msg }

// QuotaExhaustedError marks a platform that already reached its post quota.
// It is a benign skip, not a failure.
type QuotaExhaustedError struct {
	Platform types.Platform
	Quota    int
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("post quota for %s exhausted (%d)", e.Platform, e.Quota)
}

// AllocationExhaustedError reports that the account allocator could not
// produce an account, which aborts the current unit of work.
type AllocationExhaustedError struct {
	Platform types.Platform
	Err      error
}

func (e *AllocationExhaustedError) Error() string {
	return fmt.Sprintf("no account available for %s: %v", e.Platform, e.Err)
}

func (e *AllocationExhaustedError) Unwrap() error { return e.Err }

// ExternalServiceError wraps a failure from a collaborator outside the
// process, the content generator or the browser publisher.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// PostingFailedError aggregates the per-platform failures from a posting run
// where no platform produced a post and at least one failure was real.
type PostingFailedError struct {
	Failures map[types.Platform]error
}

func (e *PostingFailedError) Error() string {
	platforms := make([]string, 0, len(e.Failures))
	for p := range e.Failures {
		platforms = append(platforms, string(p))
	}
	sort.Strings(platforms)

	parts := make([]string, 0, len(platforms))
	for _, p := range platforms {
		parts = append(parts, fmt.Sprintf("%s: %v", p, e.Failures[types.Platform(p)]))
	}
	return "posting failed on every platform: " + strings.Join(parts, "; ")
}

// isBenignSkip reports whether err means "nothing to do here" rather than a
// real failure. Benign skips never surface to the caller.
func isBenignSkip(err error) bool {
	var quota *QuotaExhaustedError
	if errors.As(err, &quota) {
		return true
	}
	return errors.Is(err, platform.ErrNoAvailableTarget)
}
