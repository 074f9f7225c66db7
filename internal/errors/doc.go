// Package errors provides coded, actionable errors for routestate.
//
// Errors raised while building a router (malformed route patterns, bad
// configuration files) carry a stable code so that tooling and tests can
// match on them without parsing messages:
//
//	err := errors.New("R101").
//	    WithDetail(`pattern "/users/:" has an empty parameter name`).
//	    WithSuggestion("Name the parameter, e.g. /users/:id")
//
//	fmt.Println(err.Format())
//	// ERROR R101: Invalid route pattern
//	//
//	//   pattern "/users/:" has an empty parameter name
//	//
//	//   Hint: Name the parameter, e.g. /users/:id
//
// # Error Codes
//
// Codes are grouped by category:
//   - R1xx: config (route table, routes file)
//   - R2xx: runtime (navigation, store commands, host transport)
package errors
