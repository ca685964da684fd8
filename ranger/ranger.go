package ranger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	// TODO(dlk): configurable env files
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/http/middleware"
	"github.com/xy-planning-network/canopy/http/resp"
	"github.com/xy-planning-network/canopy/http/router"
	"github.com/xy-planning-network/canopy/logger"
	"github.com/xy-planning-network/canopy/route"
	"github.com/xy-planning-network/canopy/template"
)

// A Ranger manages and exposes all components of a canopy app to one another.
type Ranger struct {
	*resp.Responder
	*router.Router

	cache    resp.FragmentCacher
	cancel   context.CancelFunc
	ctx      context.Context
	env      canopy.Environment
	fs       fs.FS
	l        logger.Logger
	mws      []middleware.Adapter
	reg      prometheus.Registerer
	respOpts []resp.ResponderOptFn
	set      *template.Set
	srv      *http.Server
	table    *route.Table
	url      *url.URL
}

// New constructs a Ranger from the provided options.
// Options are applied first; any component they leave unset is then configured
// from environment variables and defaults.
// Last, the followups options return are called.
func New(opts ...RangerOption) (*Ranger, error) {
	r := &Ranger{ctx: context.Background()}
	followups := make([]OptFollowup, 0)

	for _, opt := range opts {
		fn, err := opt(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", canopy.ErrBadConfig, err)
		}

		if fn != nil {
			followups = append(followups, fn)
		}
	}

	if err := r.setup(); err != nil {
		return nil, fmt.Errorf("%w: %w", canopy.ErrBadConfig, err)
	}

	for _, fn := range followups {
		if err := fn(); err != nil {
			return nil, fmt.Errorf("%w: %w", canopy.ErrBadConfig, err)
		}
	}

	return r, nil
}

// setup configures every component of r not yet set by an option.
//
// NOTE(dlk): templates look up URL builders in the route table directly
// so the template set can exist before the router and responder that depend on it.
func (r *Ranger) setup() error {
	r.ctx, r.cancel = context.WithCancel(r.ctx)

	if r.env == "" {
		r.env = canopy.EnvVarOrEnv(environmentEnvVar, canopy.Development)
	}

	if r.l == nil {
		r.l = defaultAppLogger(r.env)
	}
	r.l.Debug(fmt.Sprintf("using env %s", r.env), nil)

	r.url = canopy.EnvVarOrURL(BaseURLEnvVar, defaultBaseURL())
	if r.url == nil {
		return fmt.Errorf("%w: %s", canopy.ErrNotValid, BaseURLEnvVar)
	}
	r.l.Debug(fmt.Sprintf("using base url %s", r.url), nil)

	if r.fs == nil {
		r.fs = os.DirFS(canopy.EnvVarOrString(TemplateDirEnvVar, defaultTemplateDir))
	}

	if r.cache == nil {
		cache, err := defaultCache(r.l)
		if err != nil {
			return err
		}
		r.cache = cache
	}

	if r.reg == nil {
		r.reg = prometheus.DefaultRegisterer
	}

	if r.mws == nil {
		r.mws = defaultMiddlewares(r.env, r.l, r.reg)
	}

	r.table = route.NewTable(route.WithLogger(r.l))
	r.set = defaultSet(r.env, r.l, r.url, r.fs, r.table)
	if err := r.set.Declare(template.LayoutID, template.LayoutEnv()); err != nil {
		return err
	}

	if err := r.set.Declare(template.ErrorID, template.ErrorEnv()); err != nil {
		return err
	}

	contact := canopy.EnvVarOrString(ContactUsEnvVar, defaultContactUs)
	r.Responder = defaultResponder(r.env, r.l, r.url, r.set, r.cache, contact, r.respOpts...)
	r.Router = defaultRouter(r.env, r.table, r.url, r.Responder, middleware.LogRequest(r.l), r.mws)

	r.srv = defaultServer(r.ctx)
	r.srv.Handler = r.Router

	return nil
}

func (r *Ranger) EmitCache() resp.FragmentCacher { return r.cache }
func (r *Ranger) EmitEnv() canopy.Environment    { return r.env }
func (r *Ranger) EmitLogger() logger.Logger      { return r.l }
func (r *Ranger) EmitSet() *template.Set         { return r.set }

// EmitURL returns a copy of the base URL the canopy app is reached at.
func (r *Ranger) EmitURL() *url.URL {
	u := *r.url
	return &u
}

// Cancel stops Guide, shutting down the web server.
func (r *Ranger) Cancel() { r.cancel() }

// Compile compiles every template declared so far, then freezes the template set and the route table.
// Templates bind the URL builders of routes by name, so Compile comes after every route is handled.
//
// Guide calls Compile before serving.
func (r *Ranger) Compile() error {
	if err := r.set.CompileAll(); err != nil {
		return fmt.Errorf("%w: %w", canopy.ErrBadConfig, err)
	}

	r.set.Freeze()
	r.table.Freeze()

	return nil
}

// Guide compiles the canopy app and begins the web server.
//
// These, Cancel, and cancelling the context passed in with WithContext stop Guide:
//
// - os.Interrupt
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
func (r *Ranger) Guide() error {
	if err := r.Compile(); err != nil {
		r.l.Error(err.Error(), &logger.LogContext{Error: err})
		return err
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(
		ch,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	defer signal.Stop(ch)

	errs := make(chan error, 1)
	go func() {
		r.l.Info(fmt.Sprintf("running web server at %s", r.srv.Addr), nil)
		if err := r.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("could not listen: %w", err)
		}
	}()

	select {
	case s := <-ch:
		r.l.Info(fmt.Sprint("received shutdown signal: ", s), nil)
		r.cancel()

	case <-r.ctx.Done():

	case err := <-errs:
		r.l.Error(err.Error(), nil)
		r.cancel()
		return err
	}

	return r.Shutdown()
}

// Shutdown shutdowns the web server and closes the fragment cache, when it can be closed.
func (r *Ranger) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r.l.Info("shutting down web server", nil)
	err := r.srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	if c, ok := r.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("could not close cache: %w", err)
		}
	}

	r.l.Info("web server shutdown successfully", nil)
	return nil
}
