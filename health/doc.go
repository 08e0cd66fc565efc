// Package health reports whether the process finished resolving its
// configuration and can serve.
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewPropertiesChecker(props))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// /healthz is a liveness probe, /readyz fails while any check is
// unhealthy, and /health returns per-check JSON.
package health
