package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"fms/pkg/apperror"
)

const (
	// MaxNumberAttempts bounds redraws after a uniqueness collision.
	MaxNumberAttempts = 5
	maxSequence       = 9999
)

// ErrNumberTaken is returned by an insert whose work order number already exists.
var ErrNumberTaken = errors.New("work order number already taken")

var numberPattern = regexp.MustCompile(`^WO-(\d{4})-(\d{4})$`)

// FormatNumber renders WO-<year>-<4 digit sequence>.
func FormatNumber(year int, seq int64) (string, error) {
	if year < 1000 || year > 9999 {
		return "", fmt.Errorf("year %d out of range", year)
	}
	if seq < 1 || seq > maxSequence {
		return "", fmt.Errorf("sequence %d out of range for %d", seq, year)
	}
	return fmt.Sprintf("WO-%04d-%04d", year, seq), nil
}

// ParseNumber splits a work order number into year and sequence.
func ParseNumber(s string) (year int, seq int64, ok bool) {
	m := numberPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	seq, _ = strconv.ParseInt(m[2], 10, 64)
	return year, seq, true
}

// SequenceSource hands out monotonically increasing per-year counters.
type SequenceSource interface {
	Next(ctx context.Context, year int) (int64, error)
}

// Numberer assigns work order numbers, redrawing on collision.
type Numberer struct {
	source      SequenceSource
	maxAttempts int
	now         func() time.Time
}

func NewNumberer(source SequenceSource, maxAttempts int) *Numberer {
	if maxAttempts <= 0 {
		maxAttempts = MaxNumberAttempts
	}
	return &Numberer{source: source, maxAttempts: maxAttempts, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (n *Numberer) WithClock(now func() time.Time) *Numberer {
	n.now = now
	return n
}

// Assign draws a number and passes it to insert. When insert reports
// ErrNumberTaken another number is drawn, up to the attempt bound.
func (n *Numberer) Assign(ctx context.Context, insert func(ctx context.Context, number string) error) (string, error) {
	year := n.now().Year()
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		seq, err := n.source.Next(ctx, year)
		if err != nil {
			return "", err
		}
		number, err := FormatNumber(year, seq)
		if err != nil {
			return "", apperror.Internal(err, "work order number space exhausted")
		}
		err = insert(ctx, number)
		if err == nil {
			return number, nil
		}
		if !errors.Is(err, ErrNumberTaken) {
			return "", err
		}
	}
	return "", apperror.Internal(ErrNumberTaken, fmt.Sprintf("no free work order number after %d attempts", n.maxAttempts))
}
