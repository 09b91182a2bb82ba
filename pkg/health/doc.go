// Package health provides liveness and readiness HTTP handlers.
//
// LivenessHandler always answers OK and signals only that the process is
// running. ReadinessHandler runs a set of named checks in parallel and
// reports 503 when any of them fails:
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	}))
//
// Responses are plain text for probe compatibility; clients get JSON
// with per-check detail by sending Accept: application/json or
// ?format=json.
package health
