// Package server provides HTTP routing, middleware, and the web surface of
// the recommendation service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Handlers
//
// [SpotifyAuthHandler] and [FitbitAuthHandler] implement the authorization
// code flow for the browser client. Each login issues a single-use state
// token; the callback validates it, exchanges the code, links the provider
// account to a user record, and redirects back to the client origin with
// the user ID in the query string.
//
// # API Handler
//
// [APIHandler] serves the JSON endpoints: generation requests, the surprise
// and keyword video feeds, the workout, weather and fitness recommendation
// bundles, token status checks, and the health probe.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
