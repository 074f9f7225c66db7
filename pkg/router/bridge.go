package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/query"
	"github.com/vango-dev/routestate/pkg/routepath"
)

// Command is the object form of a ui.route.go write. Exactly one of Path
// or Query should be set; Query wins when both are.
//
//	store.Set("ui.route.go", "/about")
//	store.Set("ui.route.go", map[string]any{"path": "/users/1", "search": "?tab=posts"})
//	store.Set("ui.route.go", map[string]any{"query": map[string]any{"tab": nil}})
type Command struct {
	Path    string         `mapstructure:"path" json:"path,omitempty"`
	Search  *string        `mapstructure:"search" json:"search,omitempty"`
	Query   map[string]any `mapstructure:"query" json:"query,omitempty"`
	Replace bool           `mapstructure:"replace" json:"replace,omitempty"`
}

// commandQueue is an unbounded FIFO drained by one goroutine, so a store
// subscriber never blocks on the router.
type commandQueue struct {
	mu    sync.Mutex
	items []any
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (q *commandQueue) push(v any) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *commandQueue) pop() (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	v := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return v, true
}

func (q *commandQueue) close() {
	q.once.Do(func() { close(q.done) })
}

func (q *commandQueue) stopped() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// run hands queued commands to fn in order until the queue is closed.
func (q *commandQueue) run(fn func(any)) {
	for {
		for {
			if q.stopped() {
				return
			}
			v, ok := q.pop()
			if !ok {
				break
			}
			fn(v)
		}
		select {
		case <-q.wake:
		case <-q.done:
			return
		}
	}
}

// bindStore subscribes to ui.route.go and starts the command dispatcher for
// a bind epoch. It returns the function that undoes both. navMu must be held.
func (r *Router) bindStore(epoch uint64) func() {
	q := newCommandQueue()
	unsubscribe := r.store.Subscribe(PathGo, func(v any) {
		if v == nil {
			return
		}
		q.push(v)
	})
	go q.run(func(v any) { r.handleCommand(v, epoch) })

	return func() {
		unsubscribe()
		q.close()
	}
}

// handleCommand begins the navigation a ui.route.go value asks for.
func (r *Router) handleCommand(v any, epoch uint64) {
	req, err := r.commandRequest(v)
	if err != nil {
		r.diag("ignoring ui.route.go write", "value", v, "error", err)
		r.metrics.navigation(sourceStore, outcomeInvalid)
		return
	}
	req.epoch = epoch
	r.dispatch(context.Background(), req)
}

func (r *Router) commandRequest(v any) (request, error) {
	if s, ok := v.(string); ok {
		if s == "" {
			return request{}, errors.New("R202").WithDetail("empty path")
		}
		return r.pathRequest(s, sourceStore, nil), nil
	}

	cmd, err := DecodeCommand(v)
	if err != nil {
		return request{}, err
	}

	var opts []NavigateOption
	if cmd.Replace {
		opts = append(opts, WithReplace())
	}

	switch {
	case cmd.Query != nil:
		return r.queryRequest(patchOf(cmd.Query), sourceStore, opts), nil
	case cmd.Path != "":
		pathname, search := routepath.Split(cmd.Path)
		if cmd.Search != nil {
			search = *cmd.Search
		}
		return request{
			pathname: pathname,
			search:   search,
			replace:  cmd.Replace,
			source:   sourceStore,
		}, nil
	default:
		return request{}, errors.New("R202").WithDetail("neither path nor query is set")
	}
}

// DecodeCommand converts a ui.route.go object value into a Command. It
// accepts Command, *Command and maps such as those decoded from JSON.
func DecodeCommand(v any) (Command, error) {
	switch c := v.(type) {
	case Command:
		return c, nil
	case *Command:
		if c == nil {
			return Command{}, errors.New("R202").WithDetail("nil command")
		}
		return *c, nil
	}

	var cmd Command
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &cmd,
	})
	if err != nil {
		return Command{}, err
	}
	if err := dec.Decode(v); err != nil {
		return Command{}, errors.New("R202").WithDetailf("%T", v).Wrap(err)
	}
	return cmd, nil
}

// patchOf converts a decoded query object into a patch. nil and nil
// *string values remove keys; other values are formatted with fmt.
func patchOf(m map[string]any) query.Patch {
	patch := make(query.Patch, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			patch[k] = nil
		case string:
			patch[k] = query.Value(val)
		case *string:
			patch[k] = val
		default:
			patch[k] = query.Value(fmt.Sprint(val))
		}
	}
	return patch
}
