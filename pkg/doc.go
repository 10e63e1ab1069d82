// Package pkg provides the libraries behind the adminpanel CLI and web panel.
//
// # Overview
//
// Adminpanel reads the content admin API and presents its statistics in a
// terminal and in a small web panel. Reads go through a stale-while-revalidate
// store: callers see the last known response at once while a deduplicated
// background request refreshes it.
//
// # Architecture
//
// The typical data flow for a read:
//
//	admin API
//	    ↓
//	[api] client (base URL, bearer token, typed errors)
//	    ↓
//	[swr] store (dedupe, subscribers, persisted warm start via [cache])
//	    ↓
//	[envelope] decoding (data, available/linked, stats or bare payloads)
//	    ↓
//	[hooks] typed queries and mutations
//	    ↓
//	CLI commands, terminal dashboard, [panel] HTTP handlers
//
// # Quick Start
//
//	client, _ := api.NewClient("https://cms.example.com/api", api.Options{Token: token})
//	store := swr.NewStore(swr.Options{Backend: cache.NewMemoryCache()})
//	h := hooks.New(client, store, cache.NewDefaultKeyer(), logger)
//
//	stats, err := h.ContentStats(ctx).Load(ctx)
//
// # Main Packages
//
//   - [api]: HTTP client for the admin API
//   - [envelope]: response envelope classification and decoding
//   - [swr]: stale-while-revalidate query store
//   - [hooks]: typed admin queries (content, display cards, PWA, media)
//   - [track]: fire-once view tracking beacons
//   - [compress]: client-side image compression before upload
//   - [panel]: HTTP front end with light and dark themes
//   - [cache]: storage backends (file, memory, Redis, MongoDB)
//   - [errors]: error codes shared by every layer
//   - [observability]: hooks for cache, HTTP and beacon events
//   - [buildinfo]: version information injected at build time
package pkg
