// Package idx mints the ULIDs used for user ids and request ids.
package idx

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

// ErrInvalid reports a string that is not a canonical ULID.
var ErrInvalid = errors.New("idx: invalid ulid")

// Source mints ULIDs that sort in creation order, including several minted
// within the same millisecond.
type Source struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewSource returns a Source reading time from now, or the wall clock when
// now is nil.
func NewSource(now func() time.Time) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{entropy: ulid.Monotonic(rand.Reader, 0), now: now}
}

func (s *Source) Next() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(s.now().UTC()), s.entropy).String())
}

var process = NewSource(nil)

// New mints an ID from the process-wide Source.
func New() ID { return process.Next() }

// Parse accepts only the canonical 26 character form.
func Parse(s string) (ID, error) {
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", ErrInvalid
	}
	return ID(s), nil
}

// Valid is Parse without the value. Path parameters are checked with it
// before any store lookup.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func (id ID) String() string { return string(id) }

// Time is the creation time embedded in id, or the zero time if id is not
// a ULID.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
