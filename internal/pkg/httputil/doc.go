// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers use these helpers instead of writing raw http.ResponseWriter
// calls, so every endpoint produces the same JSON envelope and never leaks
// internal errors in a 5xx body.
package httputil
