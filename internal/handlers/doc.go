// Package handlers exposes the HTTP API: per-user file management,
// compute job submission and the internal status-update endpoint used
// by the worker-facing service.
//
// Identity is taken from headers set by the authenticating proxy in
// front of this service. The internal endpoint is protected by a shared
// API key instead.
package handlers
