// Package server exposes the resolution pipeline over HTTP for player
// integrations. It keeps a single runtime alive across requests so the
// session slot and sqlite caches stay warm.
package server
