// Package api provides the HTTP client for the content-management admin API.
//
// # Overview
//
// [Client] issues JSON requests against a base URL, applies default headers
// (bearer token, request id) and turns non-2xx responses into coded errors
// from [github.com/matzehuels/adminpanel/pkg/errors]. It performs no caching
// and no retries; caching belongs to the stale-while-revalidate store in
// [github.com/matzehuels/adminpanel/pkg/swr].
//
// # Usage
//
//	client, err := api.NewClient("https://cms.example.com", api.Options{Token: token})
//	raw, err := client.GetRaw(ctx, "/pwa/stats", nil)
//	_, err = client.PostRaw(ctx, "/api/increment", track.Event{Category: "article", ID: 42})
//
// # Errors
//
// Every failure wraps one of the sentinel errors so callers can branch with
// errors.Is:
//
//   - [ErrNotFound]: 404
//   - [ErrRejected]: any other 4xx
//   - [ErrNetwork]: transport failures and 5xx
//
// The coded wrapper carries the HTTP-derived code (UNAUTHORIZED, RATE_LIMITED,
// ...) for display.
package api
