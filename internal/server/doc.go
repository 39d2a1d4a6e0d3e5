// Package server provides HTTP routing, middleware, and the JSON API for the track service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # API Handler
//
// [APIHandler] implements the [Handler] interface and serves the public
// routes: service index, platform introspection, aggregated and per-platform
// search, track detail, and downloads. Error responses are JSON objects with
// a single "error" field; engine errors map to status codes via sentinel
// matching (unknown platform 400, missing track 404, unavailable platform
// 503, extraction and upstream failures 500). Search routes are the
// exception: an unavailable platform degrades to an empty result set rather
// than an error.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
