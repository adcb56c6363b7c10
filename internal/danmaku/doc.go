// Package danmaku converts raw comment records into overlay comments and
// bounds their density. Raw volumes can reach tens of thousands per episode;
// the windowed downsampler keeps perceived density consistent by capping
// per-second counts and sampling uniformly inside oversized windows instead
// of truncating the tail.
package danmaku
