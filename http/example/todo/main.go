/*
todo is an example canopy app keeping a list of todos,
focusing on:

(1) constructing a default Ranger;
(2) binding named, typed routes to handlers;
(3) declaring templates and components that call those routes by name;
(4) and responding with full pages or fragments with resp.Fn functional options.
*/
package main

import (
	"embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xy-planning-network/canopy/http/resp"
	"github.com/xy-planning-network/canopy/http/router"
	"github.com/xy-planning-network/canopy/hx"
	"github.com/xy-planning-network/canopy/ranger"
	"github.com/xy-planning-network/canopy/template"
)

const (
	// these refer to templates available for rendering
	dir       string = "tmpl/"
	todosTmpl string = dir + "todos.html"
	todoTmpl  string = dir + "todo.html"
)

//go:embed tmpl
var tmpls embed.FS

// Handler wraps a configured *Ranger.
// The methods attached to it are the handlers the Router
// will direct requests to.
type Handler struct {
	*ranger.Ranger
	todos *store
}

// setup constructs a Handler, registering its routes and templates.
func setup(reg *prometheus.Registry, opts ...ranger.RangerOption) (*Handler, error) {
	defaults := []ranger.RangerOption{ranger.WithFS(tmpls), ranger.WithRegistry(reg)}
	rng, err := ranger.New(append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}

	h := &Handler{Ranger: rng, todos: newStore()}

	// bind routes and handlers to one another.
	// the name of each route is what templates build URLs with.
	err = rng.HandleRoutes([]router.Route{
		{Name: "todos", Method: http.MethodGet, Path: "/", Handler: h.list},
		{Name: "create_todo", Method: http.MethodPost, Path: "/todos", Handler: h.create},
		{Name: "todo", Method: http.MethodGet, Path: "/todos/{id:int}", Handler: h.show},
		{Name: "toggle_todo", Method: http.MethodPut, Path: "/todos/{id:int}/toggle", Handler: h.toggle},
		{Name: "delete_todo", Method: http.MethodDelete, Path: "/todos/{id:int}", Handler: h.delete},
		{Name: "metrics", Method: http.MethodGet, Path: "/metrics", Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP},
	})
	if err != nil {
		return nil, err
	}

	set := rng.EmitSet()
	if err := set.DeclareComponent("Todo", todoTmpl, template.NewEnv(template.Var[Todo]("todo"))); err != nil {
		return nil, err
	}

	if err := set.Declare(todosTmpl, template.NewEnv(template.Var[[]Todo]("todos"))); err != nil {
		return nil, err
	}

	return h, nil
}

// list renders every todo as a full page, or just the list for partial updates.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	h.Html(w, r,
		resp.Tmpl(todosTmpl),
		resp.Title("Todos"),
		resp.Values(template.Values{"todos": h.todos.all()}),
	)
}

// create adds a todo from the submitted form.
//
// htmx requests receive the new todo to append to the list;
// others are redirected back to it.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		h.Fragment(w, r, template.EscapedFragment("A todo needs a title."),
			resp.Code(http.StatusUnprocessableEntity),
			resp.Retarget("#errors"),
			resp.Reswap(hx.InnerHTML),
		)
		return
	}

	todo := h.todos.add(title)
	if !hx.IsRequest(r) {
		ep, err := h.Table().Build("todos")
		if err != nil {
			h.Err(w, r, err)
			return
		}

		h.Redirect(w, r, resp.Endpoint(ep))
		return
	}

	h.Html(w, r,
		resp.Tmpl(todoTmpl),
		resp.Code(http.StatusCreated),
		resp.Trigger("todo-created"),
		resp.Values(template.Values{"todo": todo}),
	)
}

// show renders a single todo.
func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, _ := router.Params(r).Int("id")
	todo, err := h.todos.get(id)
	if err != nil {
		h.notFound(w, r, err)
		return
	}

	h.Html(w, r,
		resp.Tmpl(todoTmpl),
		resp.Title(todo.Title),
		resp.Values(template.Values{"todo": todo}),
	)
}

// toggle marks a todo done or not done, replacing it in the list.
func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	id, _ := router.Params(r).Int("id")
	todo, err := h.todos.toggle(id)
	if err != nil {
		h.notFound(w, r, err)
		return
	}

	h.Html(w, r, resp.Tmpl(todoTmpl), resp.Values(template.Values{"todo": todo}))
}

// delete removes a todo; the client removes it from the list.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, _ := router.Params(r).Int("id")
	if err := h.todos.remove(id); err != nil {
		h.notFound(w, r, err)
		return
	}

	h.Fragment(w, r, template.Fragment{})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, errNotFound) {
		h.Err(w, r, err)
		return
	}

	h.Fragment(w, r, template.EscapedFragment(err.Error()), resp.Code(http.StatusNotFound), resp.Reswap(hx.None))
}

func main() {
	h, err := setup(prometheus.NewRegistry())
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// start the web server until receiving a signal to stop.
	if err := h.Guide(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
