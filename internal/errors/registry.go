package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No fileupload.json was found in the given directory.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration syntax",
		Detail:   "fileupload.json could not be parsed as JSON.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or inconsistent with another setting.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A FILEUPLOAD_* environment variable could not be parsed.",
	},

	// ============================================
	// Store Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryStore,
		Message:  "Upload store unavailable",
		Detail:   "The temporary upload store could not be initialized.",
	},
	"E121": {
		Category: CategoryStore,
		Message:  "S3 bucket not configured",
		Detail:   "The s3 store requires a bucket name.",
	},
	"E122": {
		Category: CategoryStore,
		Message:  "Unknown store kind",
		Detail:   "The store kind must be \"disk\" or \"s3\".",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "No input files",
		Detail:   "At least one file path is required.",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Files rejected",
		Detail:   "One or more offered files failed validation.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Failed to convert file to base64",
		Detail:   "A file could not be read while encoding the batch.",
	},
	"E143": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},

	// ============================================
	// Protocol Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryProtocol,
		Message:  "Invalid message format",
		Detail:   "The received message could not be decoded.",
	},
	"E161": {
		Category: CategoryProtocol,
		Message:  "Unknown message type",
		Detail:   "The message type is not recognized by the server.",
	},
	"E162": {
		Category: CategoryProtocol,
		Message:  "Upload not found",
		Detail:   "An offered upload id is unknown or has already been claimed.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
