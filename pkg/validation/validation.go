// Package validation checks the hello and frames a viewer reads from the
// stream, and limits connection attempts per host on the server side.
package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/opd-ai/go-arena/pkg/engine"
	"github.com/opd-ai/go-arena/pkg/entity"
)

// Limits on stream content
const (
	MaxRunIDLen = 64
	MaxTickRate = 10000
	MaxRecords  = 1 << 16 // bodies in one frame
)

var (
	// ErrInvalidHello is matched by every hello validation failure
	ErrInvalidHello = errors.New("invalid hello")
	// ErrInvalidFrame is matched by every frame validation failure
	ErrInvalidFrame = errors.New("invalid frame")
)

var validRunID = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// ValidateRunID accepts 1 to MaxRunIDLen letters, digits, '-' or '_'
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty run id", ErrInvalidHello)
	}
	if len(id) > MaxRunIDLen {
		return fmt.Errorf("%w: run id longer than %d characters", ErrInvalidHello, MaxRunIDLen)
	}
	if !validRunID.MatchString(id) {
		return fmt.Errorf("%w: run id %q contains invalid characters", ErrInvalidHello, id)
	}
	return nil
}

// ValidateArena requires a positive finite extent
func ValidateArena(width, height float64) error {
	if !(width > 0) || math.IsInf(width, 0) || !(height > 0) || math.IsInf(height, 0) {
		return fmt.Errorf("%w: arena %vx%v", ErrInvalidHello, width, height)
	}
	return nil
}

// ValidateTickRate requires 1 to MaxTickRate ticks per second
func ValidateTickRate(rate int) error {
	if rate < 1 || rate > MaxTickRate {
		return fmt.Errorf("%w: tick rate %d outside [1, %d]", ErrInvalidHello, rate, MaxTickRate)
	}
	return nil
}

// ValidateHello runs every hello check
func ValidateHello(runID string, width, height float64, tickRate int) error {
	if err := ValidateRunID(runID); err != nil {
		return err
	}
	if err := ValidateArena(width, height); err != nil {
		return err
	}
	return ValidateTickRate(tickRate)
}

// ValidateRecords checks records against what World.Snapshot produces.
// IDs must ascend and each kind needs its shape data.
func ValidateRecords(records []engine.Record) error {
	if len(records) > MaxRecords {
		return fmt.Errorf("%w: %d records (max %d)", ErrInvalidFrame, len(records), MaxRecords)
	}
	last := engine.BodyID(-1)
	for i, r := range records {
		if r.ID <= last {
			return fmt.Errorf("%w: record %d has id %d after %d", ErrInvalidFrame, i, r.ID, last)
		}
		last = r.ID

		if r.Durability < 1 {
			return fmt.Errorf("%w: body %d has durability %d", ErrInvalidFrame, r.ID, r.Durability)
		}
		switch r.Kind {
		case entity.KindRectangle:
		case entity.KindCircle:
			if !(r.Radius > 0) {
				return fmt.Errorf("%w: circle %d has radius %v", ErrInvalidFrame, r.ID, r.Radius)
			}
		case entity.KindPolygon:
			if len(r.Vertices) < 3 {
				return fmt.Errorf("%w: polygon %d has %d vertices", ErrInvalidFrame, r.ID, len(r.Vertices))
			}
		default:
			return fmt.Errorf("%w: body %d has unknown kind %d", ErrInvalidFrame, r.ID, int(r.Kind))
		}
	}
	return nil
}

// StreamValidator checks consecutive frames of one stream against its
// hello. It is not safe for concurrent use.
type StreamValidator struct {
	width, height float64
	lastTick      uint64
	seen          bool
}

// NewStreamValidator expects frames over a width x height arena
func NewStreamValidator(width, height float64) *StreamValidator {
	return &StreamValidator{width: width, height: height}
}

// Frame accepts a frame if it matches the arena, moves the tick forward
// and carries valid records
func (v *StreamValidator) Frame(tick uint64, width, height float64, records []engine.Record) error {
	if width != v.width || height != v.height {
		return fmt.Errorf("%w: arena %vx%v, stream announced %vx%v", ErrInvalidFrame, width, height, v.width, v.height)
	}
	if v.seen && tick <= v.lastTick {
		return fmt.Errorf("%w: tick %d does not follow %d", ErrInvalidFrame, tick, v.lastTick)
	}
	if err := ValidateRecords(records); err != nil {
		return err
	}
	v.lastTick, v.seen = tick, true
	return nil
}
