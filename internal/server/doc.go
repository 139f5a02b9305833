// Package server provides HTTP routing, middleware, and the JSON API of the scheduling service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses gorilla/mux internally for path variables and method filtering.
//
// # Authentication
//
// [Authenticate] resolves "Authorization: Bearer <api_token>" to a user and stores it in the
// request context ([UserFromContext]). Every route except /health and /google/callback requires it.
//
// # OAuth Callback Handler
//
// [OAuthCallbackHandler] completes the Google consent flow started by GET /google/auth. The state
// parameter carries the user id, the code is exchanged through the [CalendarLinker], and the browser is
// redirected to <frontend_url>/calendar/connected with a success flag and optional error message.
//
// # Routes
//
//	GET    /health
//	GET    /google/auth
//	GET    /google/callback
//	GET    /google/status
//	POST   /google/disconnect
//	GET    /meetings?scope&from&to
//	POST   /meetings
//	GET    /meetings/{id}
//	PUT    /meetings/{id}
//	DELETE /meetings/{id}
//	POST   /meetings/{id}/sync
//	GET    /calendar/events?start_date&end_date
//	GET    /calendar/availability?start_time&end_time
//
// # Errors
//
// Validation failures answer 422 with {"errors": {field: [messages]}}. Unknown or foreign
// meetings answer 404, an already synced meeting 400, a missing or unknown token 401.
// Everything else, credential and provider failures included, answers 500 with the
// underlying message passed through in {"error": ...}.
package server
