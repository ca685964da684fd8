package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/http/middleware"
	"github.com/xy-planning-network/canopy/route"
)

const (
	assetsPath       = "/assets/"
	assetsPublicPath = "client/public/"
	clientDistPath   = "client/dist/"
)

// A Route maps a named path pattern and HTTP method to an [http.HandlerFunc].
// Additional [middleware.Adapter] can be called when a server handles
// a request matching the Route.
//
// Path is a route pattern, e.g., /items/{id:int}.
// Name is how templates and handlers build URLs to the Route;
// when empty, "METHOD Path" names the Route.
type Route struct {
	Name        string
	Method      string
	Path        string
	Handler     http.HandlerFunc
	Middlewares []middleware.Adapter
}

// Router routes requests for resources to their location in a standard canopy app layout.
//
// Every Route a Router handles compiles into its [*route.Table],
// so the same table builds URLs for templates and dispatches requests.
type Router struct {
	Env           canopy.Environment
	everyReqStack []middleware.Adapter
	logReq        middleware.Adapter
	prefix        string
	r             *mux.Router
	table         *route.Table
}

// New constructs a [*Router] for the given environment, registering Routes in table.
//
// TODO(dlk): use provided [fs.FS] and [http.FS] instead of [http.FileServer].
func New(env canopy.Environment, table *route.Table, logReq middleware.Adapter) *Router {
	if logReq == nil {
		logReq = middleware.NoopAdapter
	}

	if table == nil {
		table = route.NewTable()
	}

	r := mux.NewRouter()
	cacheControl := cacheControlMiddleware()

	assetsServer := http.FileServer(http.Dir(assetsPublicPath))
	clientServer := http.FileServer(http.Dir(clientDistPath))

	// NOTE(dlk): direct reqs for the client to its distribution
	r.PathPrefix("/" + clientDistPath).Handler(middleware.Chain(
		http.StripPrefix("/"+clientDistPath, clientServer),
		cacheControl,
		logReq,
	))

	// NOTE(dlk): direct reqs for assets to public path
	r.PathPrefix(assetsPath).Handler(middleware.Chain(
		http.StripPrefix(assetsPath, assetsServer),
		cacheControl,
		logReq,
	))

	return &Router{Env: env, logReq: logReq, r: r, table: table}
}

// Builder returns the [*route.Builder] of the Route registered under name.
//
// A *Router is what templates look up the URL builders they call with.
func (r *Router) Builder(name string) (*route.Builder, bool) {
	return r.table.Builder(name)
}

// CatchAll sets up a handler for all routes to funnel to for e.g. maintenance mode.
func (r *Router) CatchAll(handler http.HandlerFunc) {
	r.r.PathPrefix("/").Handler(
		middleware.Chain(
			middleware.ReportPanic(r.Env)(handler),
			r.everyReqStack...,
		),
	)
}

// Handle applies the [Route] to the [*Router].
func (r *Router) Handle(rt Route) error {
	return r.HandleRoutes([]Route{rt})
}

// HandleNotFound sets the provided [http.HandlerFunc] as the default function
// for when no other registered Route is matched.
func (r *Router) HandleNotFound(handler http.HandlerFunc) {
	r.r.NotFoundHandler = middleware.Chain(
		middleware.ReportPanic(r.Env)(handler),
		r.logReq,
	)
}

// HandleRoutes registers the set of Routes on the Router
// and includes all the [middleware.Adapter] on each Route.
// Any [middleware.Adapter] already assigned to a Route is appended to middlewares,
// so are called after the default set.
//
// HandleRoutes stops at the first Route that fails to compile into the Router's table,
// e.g., a malformed pattern or one as ambiguous as a Route already registered.
func (r *Router) HandleRoutes(routes []Route, middlewares ...middleware.Adapter) error {
	for _, rt := range routes {
		name := rt.Name
		if name == "" {
			name = fmt.Sprintf("%s %s", rt.Method, r.prefix+rt.Path)
		}

		compiled, err := r.table.Add(name, rt.Method, r.prefix+rt.Path)
		if err != nil {
			return fmt.Errorf("%w: %s %s: %w", canopy.ErrBadConfig, rt.Method, r.prefix+rt.Path, err)
		}

		mws := append([]middleware.Adapter{matched(compiled)}, r.everyReqStack...)
		mws = append(mws, middlewares...)
		mws = append(mws, rt.Middlewares...)
		handler := middleware.Chain(middleware.ReportPanic(r.Env)(rt.Handler), mws...)

		r.r.NewRoute().
			Name(name).
			Methods(compiled.Method).
			MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool {
				// NOTE(dlk): defer to the table so a more specific route registered later still wins.
				best, _, ok := r.table.Match(compiled.Method, req.URL.EscapedPath())
				return ok && best == compiled
			}).
			Handler(handler)
	}

	return nil
}

// OnEveryRequest appends the middlewares to the existing stack
// that the [*Router] will apply to every request.
func (r *Router) OnEveryRequest(middlewares ...middleware.Adapter) {
	r.everyReqStack = append(r.everyReqStack, middlewares...)
}

// ServeHTTP responds to an HTTP request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.r.ServeHTTP(w, req)
}

// SubrouterHost constructs a [Router] that handles requests to the host.
func (r *Router) SubrouterHost(host string) *Router {
	return &Router{
		Env:           r.Env,
		everyReqStack: r.everyReqStack,
		logReq:        r.logReq,
		prefix:        r.prefix,
		r:             r.r.Host(host).Subrouter(),
		table:         r.table,
	}
}

// Subrouter constructs a [Router] that handles requests to endpoints matching the prefix.
//
// e.g., r.Subrouter("/api/v1") handles requests to endpoints like /api/v1/users.
// Route paths registered on the subrouter are relative to prefix,
// though they compile into the shared table with prefix prepended.
func (r *Router) Subrouter(prefix string) *Router {
	return &Router{
		Env:           r.Env,
		everyReqStack: r.everyReqStack,
		logReq:        r.logReq,
		prefix:        r.prefix + prefix,
		r:             r.r.PathPrefix(prefix).Subrouter(),
		table:         r.table,
	}
}

// Table returns the [*route.Table] every Route the Router handles compiles into.
func (r *Router) Table() *route.Table { return r.table }

// Params returns the typed path parameters extracted from the request's path.
//
// Params returns nil for requests not dispatched through a [*Router].
func Params(r *http.Request) route.Values {
	vals, _ := canopy.RouteValuesFromContext(r.Context()).(route.Values)
	return vals
}

// cacheControlMiddleware helps by adding a "Cache-Control" header to the response.
func cacheControlMiddleware() middleware.Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "max-age=2592000") // 30 days
			handler.ServeHTTP(w, r)
		})
	}
}

// matched stashes the name of rt and the values extracted from the request's path in its context.
func matched(rt *route.Route) middleware.Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// NOTE(dlk): mux matchers cannot change the request,
			// so the path matches a second time to extract its values.
			vals, _ := rt.Matcher.Match(r.URL.EscapedPath())

			ctx := context.WithValue(r.Context(), canopy.RouteNameKey, rt.Name)
			ctx = canopy.NewRouteValuesContext(ctx, vals)
			handler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
