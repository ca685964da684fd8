/*
Package template compiles and renders the canopy markup language.

A template is HTML with interpolated {expressions}, control directives,
components and action directives:

	<ul data-swappable>
		@for item in items {
			<li>
				{item.Name}
				<button {remove(delete_item(item.ID)).confirm("Delete?")}>Delete</button>
			</li>
		}
	</ul>

Compiling a template happens in two steps.
Parse turns a Source into a *Tree, reporting a *ParseError for malformed markup.
Bind resolves every name of a *Tree against an *Env:
the variables the template receives, the functions it may call,
and the route builders and components it may reference.
Binding fails with a *BindError for unknown names, mismatched arguments
and action directives whose verb disagrees with the route's method.
A *Bound template then renders any number of times, concurrently, with Values.

Directives

	@if cond { ... } else if other { ... } else { ... }
	@for item in items { ... }
	@for i, item in items { ... }
	@match status { "open" => { ... }, 0 => { ... }, other => { ... }, _ => { ... } }

Names bound by @for and @match are visible only within their bodies.
Write @@ for a literal @.

Action directives

An attribute-position {verb(endpoint)} emits the htmx attributes requesting endpoint:
load, submit, replace, remove and patch issue GET, POST, PUT, DELETE and PATCH requests.
Modifiers adjust the target and swap:

	<a {load(item_url(42)).into("#detail").push()}>View</a>

Builtins

Every template may call len(x), raw(x) and class_names(...),
which joins its non-blank arguments into one class attribute value:

	<button class={class_names("btn", variant, extra)}>Save</button>

Escaping

Interpolated values are escaped.
Fragment values, {raw(x)}, and the bodies of script and style elements are emitted verbatim.

A Set compiles the templates of a filesystem on first use, at most once each,
and renders uppercase tags as components.
*/
package template
