// package services implements the upstream client adapters: the Spotify
// catalog, the YouTube data API, Fitbit, and OpenWeatherMap. Each adapter is
// a thin typed REST client that maps provider responses into feed payloads,
// enforces a per-request timeout, and throttles itself client-side.
package services
