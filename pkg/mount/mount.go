// Package mount runs route components and owns the cleanup of the one that
// is currently mounted.
//
// A Mounter holds at most one live Cleanup. Mount installs the cleanup
// returned by a component's Boot only if the boot's Signal is still live;
// a boot that was superseded while it ran has its cleanup released
// immediately instead. Either way every cleanup runs exactly once.
package mount

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vango-dev/routestate/pkg/host"
	"github.com/vango-dev/routestate/pkg/store"
)

// ErrSuperseded is returned by Mount when the boot's Signal was cancelled
// before the boot returned.
var ErrSuperseded = errors.New("mount superseded")

// Cleanup releases whatever a component's Boot set up.
type Cleanup func()

// BootContext is handed to Component.Boot.
type BootContext struct {
	// Store is the router's store.
	Store store.Store

	// El is the route mount point. It may be nil if the host has no
	// element matching the router's root selector.
	El host.Element

	// Signal is cancelled when this navigation is superseded or the router
	// stops. Long-running boots should watch it.
	Signal context.Context

	// Params are the parameters extracted from the pathname.
	Params map[string]string

	// Query is the parsed query of the navigation.
	Query map[string]string

	// View is the view key of the route being mounted.
	View string
}

// Component is the view logic bound to a route.
type Component interface {
	// Boot mounts the component into bc.El. It may block. The returned
	// Cleanup, if non-nil, is invoked when the route is left.
	Boot(bc BootContext) (Cleanup, error)
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(bc BootContext) (Cleanup, error)

// Boot implements Component.
func (f ComponentFunc) Boot(bc BootContext) (Cleanup, error) {
	return f(bc)
}

// Mounter owns the live cleanup.
type Mounter struct {
	mu   sync.Mutex
	live Cleanup
}

// New creates an empty Mounter.
func New() *Mounter {
	return &Mounter{}
}

// Mount boots c. A boot that panics is reported as an error. If bc.Signal
// is cancelled by the time Boot returns, the returned cleanup is run at once
// and ErrSuperseded is returned; otherwise the cleanup becomes the live one.
// Any cleanup already live is released first.
func (m *Mounter) Mount(bc BootContext, c Component) error {
	if bc.Signal == nil {
		bc.Signal = context.Background()
	}

	cleanup, err := boot(bc, c)

	m.mu.Lock()
	if bc.Signal.Err() != nil {
		m.mu.Unlock()
		if cleanup != nil {
			cleanup()
		}
		if err != nil {
			return errors.Join(ErrSuperseded, err)
		}
		return ErrSuperseded
	}
	prev := m.live
	m.live = cleanup
	m.mu.Unlock()

	if prev != nil {
		prev()
	}
	return err
}

func boot(bc BootContext, c Component) (cleanup Cleanup, err error) {
	defer func() {
		if r := recover(); r != nil {
			cleanup = nil
			err = fmt.Errorf("boot panicked: %v", r)
		}
	}()
	return c.Boot(bc)
}

// Unmount runs the live cleanup, if any. Calling it again, or when nothing
// is mounted, does nothing.
func (m *Mounter) Unmount() {
	if cleanup := m.Detach(); cleanup != nil {
		cleanup()
	}
}

// Detach removes the live cleanup and returns it without running it. The
// caller owns the returned cleanup.
func (m *Mounter) Detach() Cleanup {
	m.mu.Lock()
	defer m.mu.Unlock()
	cleanup := m.live
	m.live = nil
	return cleanup
}

// Mounted reports whether a cleanup is live.
func (m *Mounter) Mounted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live != nil
}
