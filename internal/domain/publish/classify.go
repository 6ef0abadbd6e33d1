// Package publish owns the outcome classification and retry policy for
// publication attempts against the external platform.
package publish

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"
)

// Outcome categorizes a failed publish attempt.
type Outcome int

const (
	// OutcomeTransient marks rate limiting, timeouts, and server-side
	// failures; the attempt may be retried.
	OutcomeTransient Outcome = iota
	// OutcomeAuth marks credential or permission failures; retrying
	// cannot help until the user re-authenticates.
	OutcomeAuth
	// OutcomeDuplicate marks the provider reporting the content was
	// already published. This is a success in disguise: a prior attempt's
	// side effect landed even though that attempt never observed it.
	OutcomeDuplicate
)

// String returns the tag used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeAuth:
		return "auth"
	default:
		return "transient"
	}
}

// The provider signals duplicates only inside free-form error text. The
// patterns below are the detection contract; if the provider changes its
// wording, detection silently breaks and jobs are wrongly retried or
// dead-lettered. Known risk, kept as-is deliberately.
var (
	reDuplicate  = regexp.MustCompile(`(?i)duplicate|already\s+(been\s+)?(posted|published|shared)`)
	reExternalID = regexp.MustCompile(`urn:([A-Za-z0-9][A-Za-z0-9:._-]*)`)
)

var authMarkers = []string{
	"401",
	"403",
	"unauthorized",
	"forbidden",
	"invalid token",
	"invalid access token",
	"expired token",
	"token expired",
	"token has been revoked",
	"revoked",
	"insufficient permissions",
}

var transientMarkers = []string{
	"429",
	"rate limit",
	"too many requests",
	"timeout",
	"timed out",
	"temporarily",
	"temporary failure",
	"connection refused",
	"connection reset",
	"500",
	"502",
	"503",
	"504",
	"internal server error",
	"bad gateway",
	"service unavailable",
	"gateway timeout",
}

// Classify maps a publish error to an Outcome. The duplicate signal is
// checked first: it must win over any other marker present in the same
// message. Unrecognized errors classify as transient so they consume the
// retry budget instead of dead-lettering on first sight.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeTransient
	}

	text := strings.ToLower(err.Error())

	if reDuplicate.MatchString(text) {
		return OutcomeDuplicate
	}

	for _, marker := range authMarkers {
		if strings.Contains(text, marker) {
			return OutcomeAuth
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTransient
	}

	for _, marker := range transientMarkers {
		if strings.Contains(text, marker) {
			return OutcomeTransient
		}
	}

	return OutcomeTransient
}

// ExtractExternalID recovers the platform identifier embedded in a
// duplicate-submission error ("... already posted as urn:X999" → "X999").
// Returns false when no identifier is present.
func ExtractExternalID(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	m := reExternalID.FindStringSubmatch(err.Error())
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}
