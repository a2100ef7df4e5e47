package pipeline

import (
	"errors"
	"math/rand/v2"
	"net"
	"time"

	"github.com/dgallion1/nexthydra/internal/fetch"
)

// MaxRetries is the default number of fetch attempts per job.
const MaxRetries = 3

const (
	baseRetryDelay = time.Second
	maxRetryDelay  = 30 * time.Second
)

// IsRetryable reports whether a fetch failure is transient: a throttled or
// failing server, or a network timeout.
func IsRetryable(err error) bool {
	var re *fetch.RetryableError
	if errors.As(err, &re) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// RetryDelay returns how long to wait before the attempt after attempt
// (0-indexed) failed with err. A Retry-After hint from the server is used
// as-is up to maxRetryDelay; otherwise the delay doubles per attempt with
// up to 50% jitter.
func RetryDelay(attempt int, err error) time.Duration {
	var re *fetch.RetryableError
	if errors.As(err, &re) && re.RetryAfter > 0 {
		return min(re.RetryAfter, maxRetryDelay)
	}
	d := maxRetryDelay
	if attempt < 5 {
		d = min(baseRetryDelay<<attempt, maxRetryDelay)
	}
	return d + rand.N(d/2+1)
}
