package sandbox

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Handle is the runtime-assigned identifier of a running sandbox.
type Handle string

func (h Handle) String() string { return string(h) }

// Limits caps the resources of one sandbox.
type Limits struct {
	// Memory is passed to the runtime verbatim, e.g. "512m" or "2g".
	Memory string
	CPUs   float64
}

// ErrMissingLimits is returned by ParseLimits when a value is absent.
var ErrMissingLimits = errors.New("missing ram or cores parameter")

// ParseLimits builds Limits from raw request values. Both are required and
// cores must be a positive number; memory format is left to the runtime.
func ParseLimits(ram, cores string) (Limits, error) {
	ram = strings.TrimSpace(ram)
	cores = strings.TrimSpace(cores)
	if ram == "" || cores == "" {
		return Limits{}, ErrMissingLimits
	}

	cpus, err := strconv.ParseFloat(cores, 64)
	if err != nil || cpus <= 0 {
		return Limits{}, fmt.Errorf("invalid cores value %q: must be a positive number", cores)
	}

	return Limits{Memory: ram, CPUs: cpus}, nil
}

// Stream is the line-oriented output of an agent process.
type Stream interface {
	// Lines yields output lines without trailing newlines. The channel is
	// closed when the agent's output ends.
	Lines() <-chan string
	// Close stops delivering lines. It does not terminate the agent.
	Close() error
}
