/*
Package route compiles path patterns into request Matchers and typed URL Builders.

# Patterns

A pattern is a "/"-separated list of segments.
A segment is either literal text or a single parameter filling the whole segment:

	/items/{id:int}
	/users/{user:uuid}/posts/{slug}
	/docs/{rest:path}

An untyped parameter is a string.
The built-in types are int (also written integer), string, uuid and path.
A path parameter is a catch-all: it consumes one or more remaining segments
and must come last.
Register additional types on a Compiler with [WithType].

# Matching

[Matcher.Match] reports whether an escaped request path fits the pattern and,
if so, returns the parsed [Values].
Segment counts must agree exactly; a single trailing slash is ignored.
A failed match is never an error.

# Building

A [Builder] accepts arguments in the order of the pattern's [Signature]
and returns an [Endpoint]: an opaque, escaped URL whose shape always equals the pattern.
Endpoints are the only way to hand a URL to a template's action directives,
so a template cannot link to a path the route table does not serve.

# Table

A [Table] holds every Route of an application under a unique name.
Two Routes of the same method may match the same request
only when one is more specific: /items/new and /items/{slug} coexist,
and /items/new wins for that path whichever was registered first.
Registering a Route that could match the same request as an existing Route
with no such winner, e.g., /items/{id:int} and /items/{slug},
fails with ErrAmbiguous.
Freeze the Table before serving.
*/
package route
