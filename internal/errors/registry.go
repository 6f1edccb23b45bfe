package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E100-E119)
	// ============================================

	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid option value",
		Detail:   "A boolean option received a value that is neither a boolean nor unset.",
		DocURL:   "https://packd.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryServer,
		Message:  "No available port",
		Detail:   "The port probe failed or did not return a usable port.",
		DocURL:   "https://packd.dev/docs/errors/E102",
	},

	// ============================================
	// Build Errors (E110-E119)
	// ============================================

	"E110": {
		Category: CategoryBuild,
		Message:  "Build failed",
		Detail:   "The bundler reported one or more compilation errors.",
		DocURL:   "https://packd.dev/docs/errors/E110",
	},
	"E111": {
		Category: CategoryBuild,
		Message:  "Build warnings treated as errors",
		Detail:   "CI mode is enabled, so compilation warnings fail the build. Unset the CI environment variable or set it to \"false\" to allow warnings.",
		DocURL:   "https://packd.dev/docs/errors/E111",
	},

	// ============================================
	// Manifest & Settings Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Failed to read project manifest",
		DocURL:   "https://packd.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategorySettings,
		Message:  "Failed to read or write project settings",
		Detail:   "The settings file under .packd/ could not be accessed.",
		DocURL:   "https://packd.dev/docs/errors/E121",
	},

	// ============================================
	// Server Errors (E130-E139)
	// ============================================

	"E131": {
		Category: CategoryServer,
		Message:  "Development server failed to bind",
		DocURL:   "https://packd.dev/docs/errors/E131",
	},
	"E132": {
		Category: CategoryServer,
		Message:  "Development server already running",
		Detail:   "Only one development server may run per process. Stop the current server before starting another.",
		DocURL:   "https://packd.dev/docs/errors/E132",
	},

	// ============================================
	// CLI Errors (E140-E149)
	// ============================================

	"E141": {
		Category: CategoryCLI,
		Message:  "No packd.json found",
		Detail:   "packd commands must run inside a project with a packd.json manifest.",
		DocURL:   "https://packd.dev/docs/errors/E141",
	},

	// ============================================
	// Deploy Errors (E150-E159)
	// ============================================

	"E150": {
		Category: CategoryDeploy,
		Message:  "Deploy failed",
		Detail:   "Uploading the build output to the configured bucket failed.",
		DocURL:   "https://packd.dev/docs/errors/E150",
	},
	"E151": {
		Category: CategoryDeploy,
		Message:  "No build output to deploy",
		Detail:   "The output directory does not exist. Run 'packd build' first.",
		DocURL:   "https://packd.dev/docs/errors/E151",
	},
}

// Register adds or replaces an error template. Intended for tests and
// embedders that extend the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// Lookup returns the template for a code, if registered.
func Lookup(code string) (ErrorTemplate, bool) {
	template, ok := registry[code]
	return template, ok
}
