// Package session owns the resolution pipeline state for one player: the
// current title and episode, the active danmaku source, and the layered
// caches. A resolution run is search, match, detail fetch, episode match,
// comment fetch, and downsampling in that order; every layer short-circuits
// on a cache hit. All failures are absorbed at this boundary and surface as
// an empty comment list, so playback is never blocked by the danmu
// subsystem.
package session
