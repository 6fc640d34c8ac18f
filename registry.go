package abstract

import (
	"sync"
)

// Default returns the process-wide Registry used by Register, MockAll and UnmockAll.
// It is created unmocked on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})

	return defaultRegistry
}

// MockAll mocks every wrapper registered with the default Registry,
// and every wrapper registered with it afterwards.
func MockAll() {
	Default().MockAll()
}

// Register adds s to the default Registry and syncs it to the current state.
func Register(s Switch) {
	Default().Register(s)
}

// UnmockAll unmocks every wrapper registered with the default Registry,
// and every wrapper registered with it afterwards.
func UnmockAll() {
	Default().UnmockAll()
}

// unexported variables.
var (
	//nolint:gochecknoglobals // Package-level registry is intentional for process-wide toggling
	defaultRegistry *Registry
	//nolint:gochecknoglobals // Guards lazy creation of defaultRegistry
	defaultOnce sync.Once
)
