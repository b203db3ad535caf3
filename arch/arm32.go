package arch

import "encoding/binary"

// ARM32 implements Target for the AArch32 (ARM mode) absolute jump:
//
//	LDR PC, [PC, #-4]
//	.word target
const (
	arm32PrologueSize = 8

	arm32LdrPcPcMinus4 = 0xe51ff004 // LDR PC, [PC, #-4]
)

// ARM32 is the AArch32 (32-bit ARM mode) inline-hook jump target.
type ARM32 struct{}

func (ARM32) PrologueSize() int {
	return arm32PrologueSize
}

func (ARM32) EncodeJump(target uintptr) []byte {
	buf := make([]byte, arm32PrologueSize)
	binary.LittleEndian.PutUint32(buf[0:4], arm32LdrPcPcMinus4)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(target))
	return buf
}

func (ARM32) DecodeJumpTarget(code []byte) (uintptr, bool) {
	if len(code) < arm32PrologueSize {
		return 0, false
	}
	if binary.LittleEndian.Uint32(code[0:4]) != arm32LdrPcPcMinus4 {
		return 0, false
	}
	return uintptr(binary.LittleEndian.Uint32(code[4:8])), true
}
