package ipc

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/teristalegan6-debug/TeristaSpaceV1/errs"
)

// InterceptTransaction is a parsed, owned snapshot of one IPC exchange.
// Payload slices are copies, never aliases into the original buffer, so the
// transaction can be inspected or logged after the call that produced it
// returns.
type InterceptTransaction struct {
	TraceID     uuid.UUID
	Opcode      uint32
	Flags       uint32
	Service     string
	Request     []byte
	Reply       []byte
}

// minTransactionHeader covers the leading object tag plus the opcode and
// flags words that follow it.
const minTransactionHeader = 12

// ParseTransaction extracts the opcode, flags, and a best-effort service
// name from buf, which is expected to begin with the object tag that
// qualified it as IPC traffic (see IsBinderTag). The service name is found
// by scanning for the longest run of [A-Za-z0-9._] starting with a
// lowercase letter, of length greater than three; a miss leaves Service
// empty rather than failing the parse, since precision of the name is not
// guaranteed.
func ParseTransaction(buf []byte) (*InterceptTransaction, error) {
	if len(buf) < minTransactionHeader {
		return nil, fmt.Errorf("transaction header truncated to %d bytes: %w", len(buf), errs.ErrParseError)
	}

	req := make([]byte, len(buf))
	copy(req, buf)

	txn := &InterceptTransaction{
		TraceID: uuid.New(),
		Opcode:  leUint32(buf[4:8]),
		Flags:   leUint32(buf[8:12]),
		Request: req,
	}
	txn.Service = extractServiceName(buf[minTransactionHeader:])
	return txn, nil
}

func isNameByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '.', b == '_':
		return true
	default:
		return false
	}
}

// extractServiceName implements the heuristic described for the wire
// format: the longest candidate run that starts with a lowercase ASCII
// letter and is longer than three bytes.
func extractServiceName(buf []byte) string {
	var best string
	i := 0
	for i < len(buf) {
		if !isNameByte(buf[i]) {
			i++
			continue
		}
		start := i
		for i < len(buf) && isNameByte(buf[i]) {
			i++
		}
		run := buf[start:i]
		if len(run) > 3 && run[0] >= 'a' && run[0] <= 'z' && len(run) > len(best) {
			best = string(run)
		}
	}
	return best
}
