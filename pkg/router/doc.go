// Package router is a navigation controller that treats the URL as a
// projection of state held in a reactive store.
//
// A Router maps URL changes (link clicks, back/forward, programmatic calls
// and store commands) to a {view, path, params, query} tuple, writes it to
// the store, and mounts the component bound to the active route.
//
// # Store Paths
//
// On every settled navigation the router writes:
//
//	ui.route.view          view key of the matched route
//	ui.route.path          canonical pathname
//	ui.route.params        map[string]string of pattern parameters
//	ui.route.query         map[string]string of the parsed query
//	ui.route.transitioning true from the start of a navigation until it settles
//
// Writing to ui.route.go navigates without importing the router:
//
//	s.Set("ui.route.go", "/about")
//	s.Set("ui.route.go", map[string]any{"path": "/users/1", "search": "?tab=posts"})
//	s.Set("ui.route.go", map[string]any{"query": map[string]any{"tab": nil}})
//
// # Usage
//
//	r, err := router.New(router.Config{
//	    Routes: []router.Route{
//	        {Path: "/", View: "home"},
//	        {Path: "/users/:id", View: "user", Component: userView},
//	    },
//	    Store: s,
//	    Host:  h,
//	})
//	if err != nil {
//	    log.Fatal(err) // malformed pattern
//	}
//	r.Start()
//	defer r.Stop()
//
//	r.Navigate(ctx, "/users/42?tab=posts")
//
// # Ordering
//
// Navigations are ordered by issuance. Starting one cancels the Signal of
// the one in flight and releases the mounted component's cleanup before the
// new component boots. Only the latest navigation commits to the store; a
// superseded boot's result is dropped and its cleanup runs once.
//
// Store writes are delivered in order after the router's lock is released,
// so store subscribers and component cleanups may call Navigate, Stop or
// write ui.route.go, for instance to redirect. A subscriber that calls
// WaitIdle waits on its own delivery and returns only through its context.
//
// Listeners bound by Start belong to that start. Clicks, popstate events
// and ui.route.go commands they picked up before Stop are dropped.
package router
