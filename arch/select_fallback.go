//go:build !arm64 && !arm

package arch

// Default falls back to AArch64 encoding on non-ARM build hosts so the
// installer and its test suite can run on amd64 CI; production builds of
// this engine target arm64 or arm and pick up select_arm64.go/select_arm.go
// instead.
var Default Target = ARM64{}
