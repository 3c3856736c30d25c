package property

import (
	"github.com/cespare/xxhash/v2"
)

// report sends a local, recoverable failure to the diagnostics channel. A
// circular binding fails again on every read until it is replaced, so each
// distinct message is only logged once until one of the involved cells
// forgets it.
func (rt *Runtime) report(err error, involved ...*node) {
	key := xxhash.Sum64String(err.Error())
	if rt.reported.Contains(key) {
		return
	}
	rt.reported.Add(key)
	for _, n := range involved {
		n.reportedKeys = append(n.reportedKeys, key)
	}

	var cell string
	if len(involved) > 0 {
		cell = involved[0].label()
	}
	rt.logger.Warn("property binding failed", "cell", cell, "err", err)
	if rt.onError != nil {
		rt.onError(err)
	}
}

// forget drops the diagnostics keys recorded against n, so that a new binding
// that fails the same way is reported again.
func (rt *Runtime) forget(n *node) {
	for _, key := range n.reportedKeys {
		rt.reported.Remove(key)
	}
	n.reportedKeys = n.reportedKeys[:0]
}
