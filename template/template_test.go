package template_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/canopy/logger/loggertest"
	"github.com/xy-planning-network/canopy/route"
	"github.com/xy-planning-network/canopy/template"
	"github.com/xy-planning-network/canopy/template/templatetest"
)

type item struct {
	ID   int
	Name string
	Tags []string
}

func (i item) Label() string { return fmt.Sprintf("#%d %s", i.ID, i.Name) }

func (i *item) Rename(name string) string { return name + " (was " + i.Name + ")" }

func shrink(n int8) int8 { return n }

func count(n uint8) uint8 { return n }

type pair struct {
	Key any
}

type status int

func (s status) String() string {
	if s == 0 {
		return "closed"
	}
	return "open"
}

func newTable(t *testing.T) *route.Table {
	t.Helper()

	ctrl := gomock.NewController(t)
	l := loggertest.NewMockLogger(ctrl)
	l.EXPECT().Debug(gomock.Any(), gomock.Nil()).AnyTimes()
	l.EXPECT().Info(gomock.Any(), gomock.Nil()).AnyTimes()

	tbl := route.NewTable(route.WithLogger(l))
	tbl.MustAdd("items_url", http.MethodGet, "/items")
	tbl.MustAdd("item_url", http.MethodGet, "/items/{id:int}")
	tbl.MustAdd("create_item", http.MethodPost, "/items")
	tbl.MustAdd("update_item", http.MethodPut, "/items/{id:int}")
	tbl.MustAdd("delete_item", http.MethodDelete, "/items/{id:int}")
	tbl.MustAdd("doc_url", http.MethodGet, "/docs/{rest:path}")
	tbl.Freeze()

	return tbl
}

func newSet(t *testing.T, files map[string]string, opts ...template.SetOptFn) *template.Set {
	t.Helper()

	ctrl := gomock.NewController(t)
	l := loggertest.NewMockLogger(ctrl)
	l.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Error(gomock.Any(), gomock.Any()).AnyTimes()

	return templatetest.NewSet(files, append([]template.SetOptFn{template.WithLogger(l)}, opts...)...)
}

func compile(t *testing.T, text string, env *template.Env) (*template.Bound, error) {
	t.Helper()

	tree, err := template.Parse(template.Source{ID: "test.html", Text: text})
	require.Nil(t, err)
	return template.Bind(tree, env)
}

func render(t *testing.T, text string, env *template.Env, vals template.Values) string {
	t.Helper()

	b, err := compile(t, text, env)
	require.Nil(t, err)

	out, err := b.Render(context.Background(), vals)
	require.Nil(t, err)
	return out.String()
}
