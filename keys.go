package canopy

import "context"

type Key string

const (
	// IpAddrKey stashes the IP address of an HTTP request being handled by canopy.
	IpAddrKey Key = "IpAddrKey"

	// RequestIDKey stashes a unique UUID for each HTTP request.
	RequestIDKey Key = "RequestIDKey"

	// RouteNameKey stashes the name of the route matched for an HTTP request.
	RouteNameKey Key = "RouteNameKey"

	// routeValuesKey stashes the typed path parameters extracted for an HTTP request.
	routeValuesKey Key = "RouteValuesKey"
)

// String formats the stringified key with additional contextual information
func (k Key) String() string {
	return "canopy context key: " + string(k)
}

// NewRouteValuesContext stashes v, the typed path parameters of a matched route, in ctx.
//
// v is stored as-is; callers retrieve it with RouteValuesFromContext
// and assert the concrete type they stored.
func NewRouteValuesContext(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, routeValuesKey, v)
}

// RouteValuesFromContext retrieves the value stored by NewRouteValuesContext, if any.
func RouteValuesFromContext(ctx context.Context) any {
	return ctx.Value(routeValuesKey)
}

// RouteNameFromContext retrieves the name of the matched route from ctx.
// An empty string returns if no route has been matched.
func RouteNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(RouteNameKey).(string)
	return name
}
