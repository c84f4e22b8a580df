// Package errors provides structured, actionable errors for the fileupload
// command line and server setup.
//
// Every error carries a code (e.g. "E100") registered with a category, a
// short message and a longer explanation. Callers attach a suggestion and
// the underlying cause, and the CLI prints the result with [PrintError].
//
// # Categories
//
//   - config: loading and validating fileupload.json and the environment
//   - store: temporary upload storage (disk or S3)
//   - cli: command line usage and batch encoding
//   - protocol: messages exchanged with a browser connection
//
// # Usage
//
//	return errors.New("E100").
//	    WithDetail("looked in " + dir).
//	    WithSuggestion("Run 'fileupload serve --init' to create one").
//	    Wrap(err)
//
// Output:
//
//	E100: Configuration file not found
//
//	  looked in /srv/app
//
//	  Hint: Run 'fileupload serve --init' to create one
package errors
