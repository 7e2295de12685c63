// Package lane groups jobs into named execution lanes with per-lane
// rate limiting and concurrency caps.
//
// Jobs carry a Queue field that determines which lane they belong to.
// Lanes without a [Config] have no limits beyond each job's own
// maxInstances ceiling.
//
// # Per-Lane Configuration
//
// Use [Config] to set per-lane rate limits and concurrency caps:
//
//	lane.Config{
//	    Name:           "email",
//	    MaxConcurrency: 5,      // max 5 concurrent email executions
//	    RateLimit:      10,     // max 10 starts/s from this lane
//	    RateBurst:      20,     // allow bursts up to 20
//	}
//
// # Manager
//
// [Manager] enforces lane limits at execution start. It uses a
// token-bucket rate limiter (golang.org/x/time/rate) and an
// active-count gate for concurrency limits.
//
//	m := lane.NewManager(configs...)
//	if m.Acquire(laneName) {
//	    defer m.Release(laneName)
//	    // run the job
//	}
package lane
