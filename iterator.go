package mure

import "github.com/severinsimmler/mure/internal/dispatcher"

// Iterator is the pull interface Drive returns: one ResponseRecord per call to Next, in
// submission order, overlapping the requests still in flight behind the scenes.
type Iterator struct {
	d *dispatcher.Dispatcher
}

// Next returns the next response and true, or (nil, false) once every response has been
// delivered. It blocks until that response is ready.
func (it *Iterator) Next() (*ResponseRecord, bool) {
	return it.d.Next()
}

// Len returns the total number of requests this Iterator was built from.
func (it *Iterator) Len() int {
	return it.d.Len()
}

// InFlight returns the number of HTTP sends currently in progress, bounded by the
// Config.BatchSize given to Drive. Useful for tests and diagnostics; cache hits never
// count toward it.
func (it *Iterator) InFlight() int64 {
	return it.d.InFlight()
}

// Close cancels any requests still outstanding and releases the shared HTTP client. It
// is safe to call more than once, and safe to call after the Iterator is exhausted; in
// that case it still cancels the run's context and closes the client's idle pooled
// connections, which draining every response with Next does not do.
func (it *Iterator) Close() {
	it.d.Close()
}
