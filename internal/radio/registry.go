package radio

import "sync"

// registry maps a medium name to its shared Medium, letting independently
// configured nodes within one process find each other by name
// (radio.medium_addr in configuration) instead of the caller having to thread a *Medium
// through by hand. Real hardware has no such registry — a deployment with
// one alohad process per physical radio never touches this.
var registry sync.Map // map[string]*Medium

// Lookup returns the named Medium, creating it on first use. Concurrent
// callers racing to create the same name all observe the same Medium.
func Lookup(name string) *Medium {
	if m, ok := registry.Load(name); ok {
		return m.(*Medium)
	}
	m, _ := registry.LoadOrStore(name, NewMedium())
	return m.(*Medium)
}
