//go:build arm64

package arch

// Default is the Target used when the engine is built for its shipping
// AArch64 targets.
var Default Target = ARM64{}
