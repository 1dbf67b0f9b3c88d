// Package observability provides the zap logger constructor and the
// Prometheus collectors used by the gateway.
package observability
