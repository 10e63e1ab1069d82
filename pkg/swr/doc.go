// Package swr implements a keyed stale-while-revalidate store.
//
// A [Store] owns one entry per fetch key. Each entry holds the raw response
// bytes of the last successful fetch, the last error, the time of the last
// success and whether a request for the key is in flight. Entries are
// envelope-agnostic: they store what the API returned and nothing else.
//
// [Use] mounts a typed [Query] on a key. Mounting subscribes to the entry,
// warm-starts it from the persistent backend when one is configured, and
// revalidates in the background unless the entry was refreshed within
// [Options.DedupeInterval]. Every trigger (mount, focus, [Query.Refetch],
// [Store.Mutate] with revalidation) funnels through one singleflight group,
// so concurrent triggers for the same key share exactly one request.
//
// Failures never clear data. A failed fetch records its error and leaves the
// previous bytes in place; the next success clears the error.
//
//	store := swr.NewStore(swr.Options{Backend: backend, TTL: time.Hour})
//	q := swr.Use(ctx, store, "/pwa/stats", fetch, decodeStats)
//	defer q.Close()
//	state, err := q.Load(ctx)
package swr
