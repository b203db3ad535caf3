package arch

import "encoding/binary"

// ARM64 implements Target for the AArch64 absolute jump encoding:
//
//	LDR X16, #8
//	BR  X16
//	.quad target
const (
	arm64PrologueSize = 16

	arm64LdrX16Imm8 = 0x58000050 // LDR X16, #8
	arm64BrX16      = 0xD61F0200 // BR X16
)

// ARM64 is the AArch64 inline-hook jump target.
type ARM64 struct{}

func (ARM64) PrologueSize() int {
	return arm64PrologueSize
}

func (ARM64) EncodeJump(target uintptr) []byte {
	buf := make([]byte, arm64PrologueSize)
	binary.LittleEndian.PutUint32(buf[0:4], arm64LdrX16Imm8)
	binary.LittleEndian.PutUint32(buf[4:8], arm64BrX16)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(target))
	return buf
}

func (ARM64) DecodeJumpTarget(code []byte) (uintptr, bool) {
	if len(code) < arm64PrologueSize {
		return 0, false
	}
	if binary.LittleEndian.Uint32(code[0:4]) != arm64LdrX16Imm8 {
		return 0, false
	}
	if binary.LittleEndian.Uint32(code[4:8]) != arm64BrX16 {
		return 0, false
	}
	return uintptr(binary.LittleEndian.Uint64(code[8:16])), true
}
