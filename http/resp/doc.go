/*
The resp package provides a high-level API for responding to HTTP requests
with an easy way to configure the responses application-wide.

resp provides four main ways of responding to an HTTP request:
- rendering templates, as full pages or as partial-update fragments
- writing already rendered fragments
- rendering JSON data
- redirecting

Html decides between a full page and a fragment by the request itself:
requests issued by the client library (see hx.IsRequest) receive the bare fragment
to swap in, and all others receive the fragment wrapped in a layout.

	func (h *handler) item(w http.ResponseWriter, r *http.Request) {
		id, _ := router.Params(r).Int("id")
		h.Html(w, r,
			resp.Tmpl("tmpl/item.html"),
			resp.Title("Item"),
			resp.Values(template.Values{"item": h.items[id]}),
			resp.Trigger("item-viewed"),
		)
	}
*/
package resp
