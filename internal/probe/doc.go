// Package probe implements the acceptance check for a running
// schematizer instance.
//
// A Prober issues GET /v1/namespaces against the service. WaitReady
// retries the request with a fixed delay so callers can wait out a
// slow startup; Check runs a single request and fails on anything
// other than a 2xx response. The smokecheck command combines the two:
// warm up until the service answers, then assert that it still does.
package probe
