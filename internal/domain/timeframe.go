package domain

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe is a normalized bar interval token. Providers translate these to
// their native interval vocabulary.
type Timeframe string

const (
	M1  Timeframe = "M1"
	M5  Timeframe = "M5"
	M15 Timeframe = "M15"
	M30 Timeframe = "M30"
	H1  Timeframe = "H1"
	H4  Timeframe = "H4"
	D1  Timeframe = "D1"
	W1  Timeframe = "W1"
	MN1 Timeframe = "MN1"
)

// Timeframes lists every normalized token in ascending duration order.
func Timeframes() []Timeframe {
	return []Timeframe{M1, M5, M15, M30, H1, H4, D1, W1, MN1}
}

// ParseTimeframe converts a string into a normalized Timeframe,
// case-insensitively. Unknown tokens yield a ValidationError.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	switch tf {
	case M1, M5, M15, M30, H1, H4, D1, W1, MN1:
		return tf, nil
	}
	return "", &ValidationError{Reason: fmt.Sprintf("unknown timeframe %q", s)}
}

// Duration returns the nominal bar length. Months are approximated at 30
// days; callers needing calendar months must not rely on this value.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case M1:
		return time.Minute
	case M5:
		return 5 * time.Minute
	case M15:
		return 15 * time.Minute
	case M30:
		return 30 * time.Minute
	case H1:
		return time.Hour
	case H4:
		return 4 * time.Hour
	case D1:
		return 24 * time.Hour
	case W1:
		return 7 * 24 * time.Hour
	case MN1:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// Intraday reports whether the timeframe is shorter than one day.
func (tf Timeframe) Intraday() bool {
	d := tf.Duration()
	return d > 0 && d < 24*time.Hour
}
