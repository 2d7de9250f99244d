package hostload

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// ProcStatSampler is the production Sampler: it reads the aggregate CPU
// line from /proc/stat and reports the fraction of ticks spent non-idle
// since the previous call. No pack library wraps /proc/stat parsing, so
// this is a small, single-purpose stdlib reader rather than a dependency.
type ProcStatSampler struct {
	mu       sync.Mutex
	prevIdle uint64
	prevTot  uint64
}

// NewProcStatSampler constructs a ProcStatSampler with no prior reading.
// Its first Sample call always returns 0 since a delta needs two points.
func NewProcStatSampler() *ProcStatSampler {
	return &ProcStatSampler{}
}

// Sample implements Sampler.
func (s *ProcStatSampler) Sample() (float64, error) {
	idle, total, err := readProcStatCPU()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevIdle, prevTot := s.prevIdle, s.prevTot
	s.prevIdle, s.prevTot = idle, total

	totalDelta := total - prevTot
	if prevTot == 0 || totalDelta == 0 {
		return 0, nil
	}
	idleDelta := idle - prevIdle
	busy := float64(totalDelta-idleDelta) / float64(totalDelta)
	if busy < 0 {
		busy = 0
	}
	if busy > 1 {
		busy = 1
	}
	return busy, nil
}

// readProcStatCPU parses the first "cpu " line of /proc/stat into
// (idle-ticks, total-ticks).
func readProcStatCPU() (idle, total uint64, err error) {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return 0, 0, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || fields[0] != "cpu" {
			continue
		}
		vals := make([]uint64, 0, len(fields)-1)
		for _, f := range fields[1:] {
			v, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				return 0, 0, fmt.Errorf("hostload: parse /proc/stat field %q: %w", f, err)
			}
			vals = append(vals, v)
			total += v
		}
		idle = vals[3]
		if len(vals) > 4 {
			idle += vals[4] // iowait counts as idle for this purpose
		}
		return idle, total, nil
	}
	return 0, 0, fmt.Errorf("hostload: no aggregate cpu line in /proc/stat")
}
