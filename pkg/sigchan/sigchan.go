// Package sigchan provides a non-blocking signal channel for waking
// waiters without accumulating pending notifications.
package sigchan

// Chan is a buffered signal channel. Emit never blocks; duplicate
// signals collapse into one pending notification.
type Chan chan struct{}

// New creates a signal channel with a single slot.
func New() Chan {
	return make(Chan, 1)
}

// Emit signals the channel. It is a no-op when a signal is already
// pending.
func (c Chan) Emit() {
	select {
	case c <- struct{}{}:
	default:
	}
}

// Close closes the channel, releasing all waiters.
func (c Chan) Close() {
	close(c)
}
