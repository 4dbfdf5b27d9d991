//go:build !simdebug

package grid

// DebugChecks enables invariant assertions that are compiled out of normal builds.
// Build with -tags simdebug to turn them on.
const DebugChecks = false
