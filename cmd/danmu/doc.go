// Package main hosts the danmu CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into
// resolution workflows: fetching the comment track for an episode, ranking
// and switching danmaku sources, inspecting the sqlite caches, managing
// viewing history, and serving the HTTP API for player integrations. It
// centralizes configuration resolution and logger setup so subcommands can
// focus on user experience instead of wiring.
package main
