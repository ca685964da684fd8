/*
The middleware package defines what a middleware is in canopy and a set of basic middlewares.

The available middlewares are:
- CORS
- ForceHTTPS
- InjectIPAddress
- LogRequest
- Metrics
- RateLimit
- ReportPanic
- RequestID
- Trace

Due to the amount of configuration required, middleware does not provide a default middleware chain.
Instead, the following can be copy-pasted:

	vs := middleware.NewVisitors()
	adpts := []middleware.Adapter{
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.RateLimit(vs),
		middleware.ForceHTTPS(env),
		middleware.ReportPanic(env),
		middleware.Trace(),
		middleware.Metrics(),
		middleware.LogRequest(log),
		middleware.CORS(origins...),
	}

Metrics, Trace and LogRequest read the name of the matched route,
so a router ought to stash it in the request context before these run.
*/
package middleware
