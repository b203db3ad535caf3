// Package policy holds the allow/block table and predicate registry
// consulted by the IPC interceptor before a transaction is admitted.
package policy

import (
	"fmt"
	"sync"

	"github.com/teristalegan6-debug/TeristaSpaceV1/errs"
)

// Transaction is the parsed view of one IPC exchange offered to a
// Predicate: opcode, flags, service name, and the request/reply payloads,
// so a predicate can gate on more than the service name alone.
type Transaction struct {
	Opcode  uint32
	Flags   uint32
	Service string
	Request []byte
	Reply   []byte
}

// Predicate gates admission for a specific service beyond the allow bit. It
// receives the full parsed transaction the interceptor classified.
type Predicate func(txn Transaction) bool

type rule struct {
	allow     bool
	explicit  bool
	predicate Predicate
}

// defaultSeed is restored by Clear and applied to every new ServicePolicy:
// essential system services are allowed, telephony-adjacent services that
// leak subscriber data are blocked.
func defaultSeed() map[string]rule {
	return map[string]rule{
		"servicemanager": {allow: true, explicit: true},
		"package":        {allow: true, explicit: true},
		"activity":       {allow: true, explicit: true},
		"window":         {allow: true, explicit: true},
		"input":          {allow: true, explicit: true},
		"power":          {allow: true, explicit: true},
		"telephony.registry": {allow: false, explicit: true},
		"isms":               {allow: false, explicit: true},
		"phone":              {allow: false, explicit: true},
	}
}

// ServicePolicy maps service names to an allow bit and an optional
// predicate. Reads happen on the hot path (every intercepted transaction);
// writes happen only through SetAllow/SetPredicate/ClearPredicate/Clear, so a RWMutex with a short read-side critical section is sufficient —
// there is no long-held read section to justify copy-on-write here.
type ServicePolicy struct {
	mu    sync.RWMutex
	rules map[string]rule
}

// New constructs a ServicePolicy seeded with the default allow/block table.
func New() *ServicePolicy {
	return &ServicePolicy{rules: defaultSeed()}
}

// Allow reports whether txn.Service is permitted. Absence of an entry means
// allow; a registered predicate, if present, has the final word.
func (p *ServicePolicy) Allow(txn Transaction) bool {
	p.mu.RLock()
	r, ok := p.rules[txn.Service]
	p.mu.RUnlock()

	if !ok {
		return true
	}
	if r.predicate != nil {
		return r.predicate(txn)
	}
	return r.allow
}

// SetAllow sets the plain allow bit for service, replacing any predicate
// previously registered for it.
func (p *ServicePolicy) SetAllow(service string, allow bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules[service] = rule{allow: allow, explicit: true}
}

// SetPredicate registers pred to gate admission for service. The plain
// allow bit is retained as a fallback value but is shadowed while pred is
// set. If service has no prior entry (no SetAllow call and not part of the
// default seed), the fallback allow bit defaults to true and
// errs.ErrPolicyMissing is returned — non-fatal, reporting that the
// predicate was attached to a service the policy table had never heard of.
func (p *ServicePolicy) SetPredicate(service string, pred Predicate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.rules[service]
	if !ok {
		r = rule{allow: true}
	}
	r.predicate = pred
	p.rules[service] = r

	if !r.explicit {
		return fmt.Errorf("service %q: %w", service, errs.ErrPolicyMissing)
	}
	return nil
}

// ClearPredicate removes any predicate registered for service. A service
// whose only rule came from an auto-vivified SetPredicate call (no explicit
// allow bit ever set) is dropped entirely, reverting it to "absent ⇒
// allow"; otherwise its explicit allow bit is left in effect.
func (p *ServicePolicy) ClearPredicate(service string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.rules[service]
	if !ok {
		return
	}
	if !r.explicit {
		delete(p.rules, service)
		return
	}
	r.predicate = nil
	p.rules[service] = r
}

// Clear restores the default allow/block seed, discarding every
// caller-registered rule and predicate.
func (p *ServicePolicy) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = defaultSeed()
}

// Snapshot returns the plain allow bit for service without evaluating a
// predicate, together with whether a predicate is registered and whether
// service has any entry at all, for inspection by management surfaces.
func (p *ServicePolicy) Snapshot(service string) (allow bool, hasPredicate bool, known bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.rules[service]
	if !ok {
		return true, false, false
	}
	return r.allow, r.predicate != nil, true
}
