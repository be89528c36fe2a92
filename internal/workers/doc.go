/*
Package workers provides utilities for determining optimal worker pool sizes
in containerized environments.

When running Go applications in containers, the number of available CPUs may
be limited by cgroup constraints. While Go 1.19+ automatically sets GOMAXPROCS
based on container CPU limits, runtime.NumCPU() still returns the host
machine's CPU count. This package uses GOMAXPROCS to size worker pools so that
conversion workloads respect container resource limits.

	// For CPU-intensive tasks (decoding, encoding)
	numWorkers := workers.ForCPU(8) // max 8 workers

	// For I/O-bound tasks (reading watched files, writing outputs)
	numWorkers := workers.ForIO(16) // max 16 workers

All functions respect the CONVERT_WORKERS environment variable, allowing
operators to override the automatic calculation.
*/
package workers
