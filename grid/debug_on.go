//go:build simdebug

package grid

// DebugChecks enables invariant assertions that are compiled out of normal builds.
const DebugChecks = true
