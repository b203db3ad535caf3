//go:build arm

package arch

// Default is the Target used when the engine is built for AArch32 (ARM mode).
var Default Target = ARM32{}
