package amm

// enter acquires the pool's in-flight guard. Execution is single-writer, so a
// set flag can only mean the caller arrived through a ledger transfer hook;
// nested entry is rejected rather than blocked.
func (p *Pool) enter() error {
	if p.locked {
		return ErrReentrantCall
	}
	p.locked = true
	return nil
}

// exit releases the guard. Deferred on every state-changing entry point.
func (p *Pool) exit() {
	p.locked = false
}
