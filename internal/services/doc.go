// Package services talks to external music providers.
//
// # Spotify
//
// [SpotifyService] authenticates with the client credentials flow, so it
// needs no user login and can only read public data. Tokens are fetched and
// refreshed by [clientcredentials.Config] on demand.
//
// Its one job in the assistant is [SpotifyService.SearchSongs]: find the
// public playlist that best matches a free-text description and return its
// tracks as catalog songs.
//
// # Error Handling
//
// Services use the sentinel errors of the shared package:
//   - [shared.ErrMissingCredentials] : client id or secret not configured
//   - [shared.ErrAPIRequest] : the provider answered with a non-2xx status
//   - [shared.ErrServiceUnavailable] : the provider could not be reached
//   - [shared.ErrNotFound] : no playlist matched the description
package services
