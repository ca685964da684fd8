/*
Package router dispatches HTTP requests to handlers through a shared route table.

A [*Router] wraps [mux.Router], though it does not rely on mux path templates.
Each [Route] compiles into a [*route.Table], and mux matches requests
with the compiled [*route.Matcher], so the table that builds URLs for templates
is the same table that dispatches requests to handlers.
Registration fails fast: a malformed pattern, a name already taken,
or a pattern as ambiguous as one already registered returns an error from HandleRoutes.

A handler reads the typed path parameters through [Params]:

	func item(w http.ResponseWriter, r *http.Request) {
		id, _ := router.Params(r).Int("id")
		...
	}

Before a request gets to a handler,
the name of the matched Route is stashed in the request context,
so middlewares like middleware.Metrics label requests by it,
and then any middlewares added to the Route are called in the order they appear.
*/
package router
