/*
Package hx maps action directives onto the attributes and headers of the htmx partial-update protocol.

A template writes

	<button {remove(item_url(item.ID)).confirm("Delete?")}>Delete</button>

and the renderer resolves the [Directive] with the built [route.Endpoint]:

	<button hx-delete="/items/7" hx-target="this" hx-swap="delete" hx-confirm="Delete?">Delete</button>

Each [Verb] fixes the HTTP method and the default [Swap]:

	load     GET     innerHTML
	submit   POST    innerHTML
	replace  PUT     outerHTML
	remove   DELETE  delete
	patch    PATCH   outerHTML

The package only emits attributes and reads headers;
it never executes protocol logic.
*/
package hx
