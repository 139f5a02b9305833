// Package services implements the Google Calendar integration.
//
// # Calendar Link
//
// [CalendarLink] manages one OAuth2 credential per user: it builds the consent URL
// (the user id travels as the state parameter), exchanges the callback code, stores the
// token JSON verbatim on the user record and clears it on disconnect.
//
// [CalendarLink.ActiveClient] runs before every provider call. An expired access token is
// refreshed exactly once and the new token persisted before a client is returned. The
// client is built from a static token source so no authenticated state is shared between
// requests.
//
// # Sync Bridge
//
// [SyncBridge] implements [Calendar] on top of the Calendar v3 events API. Each call runs
// under the configured request timeout.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrNotConnected] : no stored credential, no provider call made
//   - [shared.ErrExpiredNoRefresh] : access token expired and no refresh token stored
//   - [shared.ErrTokenExchange] : code exchange or refresh rejected
//   - [shared.ErrProvider] : any events API failure, wrapping the underlying error
//   - [shared.ErrNotFound] : unknown user
//
// Outbound requests pass through a token bucket ([golang.org/x/time/rate]) shared by all users.
package services
