// Package ipc classifies and filters traffic on the three syscalls used to
// drive the IPC character device: the control call (ioctl-class) and the
// byte-oriented write and read.
package ipc

import (
	"go.uber.org/zap"

	"github.com/teristalegan6-debug/TeristaSpaceV1/policy"
)

// Interceptor holds the policy consulted by each replacement body and logs
// admitted and rejected transactions. It does not itself own the hooks on
// ioctl/write/read — those are installed through the hook manager by the
// coordinator, which wires the interceptor's Handle* methods as the
// replacement bodies' decision logic.
type Interceptor struct {
	logger *zap.Logger
	policy *policy.ServicePolicy
}

// New constructs an Interceptor over policy. policy's lifecycle is owned by
// the caller (the coordinator), not by the Interceptor.
func New(logger *zap.Logger, svcPolicy *policy.ServicePolicy) *Interceptor {
	return &Interceptor{logger: logger, policy: svcPolicy}
}

// HandleIoctl classifies req and, for the driver's READ-WRITE transaction
// code, logs the exchange. Parsing the associated structure and consulting
// policy at the ioctl layer is not implemented: the transaction's actual
// payload arrives through the paired write call, which HandleWrite
// evaluates.
func (in *Interceptor) HandleIoctl(req uint32, call func() int) int {
	if IsBinderIoctl(req) && in.logger != nil {
		in.logger.Debug("binder control transaction observed", zap.Uint32("request", req))
	}
	return call()
}

// HandleWrite classifies buf and, if it carries a parseable transaction,
// evaluates policy before deciding whether to invoke call. A buffer that
// looks like IPC traffic but fails to parse is forwarded without a policy
// check, matching the engine-wide rule that parse failures never block
// traffic.
func (in *Interceptor) HandleWrite(buf []byte, call func([]byte) int) int {
	if !IsBinderTag(buf) {
		return call(buf)
	}

	txn, err := ParseTransaction(buf)
	if err != nil {
		if in.logger != nil {
			in.logger.Debug("failed to parse outbound transaction, forwarding", zap.Error(err))
		}
		return call(buf)
	}

	admitted := in.policy.Allow(policy.Transaction{
		Opcode:  txn.Opcode,
		Flags:   txn.Flags,
		Service: txn.Service,
		Request: txn.Request,
		Reply:   txn.Reply,
	})
	if !admitted {
		if in.logger != nil {
			in.logger.Debug("transaction rejected by policy",
				zap.String("service", txn.Service),
				zap.Uint32("opcode", txn.Opcode),
				zap.String("trace_id", txn.TraceID.String()),
			)
		}
		return -1
	}

	if in.logger != nil {
		in.logger.Debug("transaction admitted",
			zap.String("service", txn.Service),
			zap.String("trace_id", txn.TraceID.String()),
		)
	}
	return call(buf)
}

// HandleRead invokes call to populate buf, then classifies and logs the
// resulting reply without the ability to un-deliver it: by the time a read
// reply exists, the kernel has already produced it. Read-side policy
// enforcement belongs to the write side of the exchange that requested it.
func (in *Interceptor) HandleRead(buf []byte, call func([]byte) int) int {
	n := call(buf)
	if n > 0 && IsBinderTag(buf) && in.logger != nil {
		if txn, err := ParseTransaction(buf[:n]); err == nil {
			in.logger.Debug("inbound transaction observed",
				zap.String("service", txn.Service),
				zap.String("trace_id", txn.TraceID.String()),
			)
		}
	}
	return n
}
