// Package system reports host resources used to size worker pools.
package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Parallelism returns the number of logical CPUs usable by this process.
//
// The host CPU count from gopsutil is capped at GOMAXPROCS so a container or
// an explicit GOMAXPROCS setting is honoured. It never returns less than 1.
func Parallelism() int {
	n := runtime.GOMAXPROCS(0)
	if count, err := cpu.Counts(true); err == nil && count > 0 && count < n {
		n = count
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Workers resolves a configured worker count. Non-positive values mean
// "use Parallelism()".
func Workers(configured int) int {
	if configured > 0 {
		return configured
	}
	return Parallelism()
}
