package assetpipe

import "runtime"

// Worker sizing constants.
const (
	// MinWorkers ensures at least one entry is built at a time.
	MinWorkers = 1

	// MaxWorkers caps parallel entry builds. Entries share the module
	// cache, so more workers mostly contend on the same files.
	MaxWorkers = 8
)

// ResolveWorkers determines how many entries are built in parallel.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by CLIs.
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers.
	n := runtime.GOMAXPROCS(0)
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
