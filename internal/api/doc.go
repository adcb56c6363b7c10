// Package api exposes the resolution workflows consumed by the CLI and the
// HTTP server. Functions accept request structs carrying the loaded
// configuration and assemble the stores and session they need, so command
// and handler code stays free of wiring.
package api
