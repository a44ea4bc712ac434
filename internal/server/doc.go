// Package server exposes the agent over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("POST /api/sessions").
//
// # Chat API
//
// [ChatHandler] keeps one agent session per conversation in a [Sessions] registry:
//
//	POST   /api/sessions                start a conversation, optionally logged in as {"username": ...}
//	GET    /api/sessions/{id}           session state and open candidates
//	POST   /api/sessions/{id}/messages  send {"text": ...}, receive the agent's response
//	DELETE /api/sessions/{id}           end a conversation
//
// Turns of one session are serialised; different sessions run concurrently.
// A response with "stop" set ends the conversation and removes its session.
//
// # Observability
//
// [Logging] and [Metrics] record every routed request. Prometheus collectors
// are served on GET /metrics and a liveness probe on GET /healthz.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
