// Package server holds the HTTP status server configuration.
//
// The serve command builds the Fiber application itself; this package only
// defines where it listens and the API key protecting it.
package server
