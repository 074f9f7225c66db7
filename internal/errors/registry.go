package errors

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Config errors (R100-R199)

	"R101": {
		Category:   CategoryConfig,
		Message:    "Invalid route pattern",
		Suggestion: "Patterns start with \"/\" and use :name for a segment or *name for the remainder, e.g. /users/:id",
	},
	"R102": {
		Category:   CategoryConfig,
		Message:    "Duplicate route parameter",
		Suggestion: "Give every :param and *param in a pattern a distinct name.",
	},
	"R103": {
		Category:   CategoryConfig,
		Message:    "Catch-all must be the last segment",
		Suggestion: "Move the *name segment to the end of the pattern.",
	},
	"R104": {
		Category:   CategoryConfig,
		Message:    "Route has no view",
		Suggestion: "Set the view key written to ui.route.view for every route.",
	},
	"R110": {
		Category: CategoryConfig,
		Message:  "Cannot read routes file",
	},
	"R111": {
		Category:   CategoryConfig,
		Message:    "Cannot parse routes file",
		Suggestion: "Routes files are YAML (.yaml, .yml) or JSON (.json).",
	},

	// Runtime errors (R200-R299)

	"R201": {
		Category:   CategoryRuntime,
		Message:    "Invalid navigation path",
		Suggestion: "Navigate to an absolute path such as /about; backslashes, NUL bytes and .. above root are rejected.",
	},
	"R202": {
		Category:   CategoryRuntime,
		Message:    "Invalid ui.route.go command",
		Suggestion: "Write a path string, {path, search} or {query} to ui.route.go.",
	},
	"R210": {
		Category: CategoryRuntime,
		Message:  "Host connection failed",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
