// Package middleware stores the global middleware of the HTTP server.
//
// These intercept requests to handle cross-cutting concerns
// such as request ids, request logging, CORS, tracing
// and panic recovery.
package middleware
