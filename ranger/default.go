package ranger

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/http/middleware"
	"github.com/xy-planning-network/canopy/http/resp"
	"github.com/xy-planning-network/canopy/http/router"
	"github.com/xy-planning-network/canopy/logger"
	"github.com/xy-planning-network/canopy/route"
	"github.com/xy-planning-network/canopy/template"
)

const (
	// Base URL defaults
	BaseURLEnvVar = "BASE_URL"

	// App metadata
	AppTitleEnvVar   = "APP_TITLE"
	defaultAppTitle  = "canopy"
	ContactUsEnvVar  = "CONTACT_US_EMAIL"
	defaultContactUs = "hello@xyplanningnetwork.com"
	contactUsErr     = "Please try again or contact us at %s."

	// Environment defaults
	environmentEnvVar = "ENVIRONMENT"

	// Log defaults
	logLevelEnvVar = "LOG_LEVEL"

	// Template defaults
	TemplateDirEnvVar  = "TEMPLATE_DIR"
	defaultTemplateDir = "."
	HTMXSrcEnvVar      = "HTMX_SRC"

	// Fragment cache defaults
	RedisURLEnvVar = "REDIS_URL"

	// Middleware defaults
	CORSOriginEnvVar = "CORS_ORIGIN"

	// Web server defaults
	DefaultHost               = "localhost"
	hostEnvVar                = "HOST"
	DefaultPort               = ":3000"
	portEnvVar                = "PORT"
	serverReadTimeoutEnvVar   = "SERVER_READ_TIMEOUT"
	DefaultServerReadTimeout  = 5 * time.Second
	serverIdleTimeoutEnvVar   = "SERVER_IDLE_TIMEOUT"
	DefaultServerIdleTimeout  = 120 * time.Second
	serverWriteTimeoutEnvVar  = "SERVER_WRITE_TIMEOUT"
	DefaultServerWriteTimeout = 5 * time.Second
)

// defaultBaseURL is where a canopy app is reached when BASE_URL is not set.
func defaultBaseURL() string {
	port := canopy.EnvVarOrString(portEnvVar, DefaultPort)
	if port[0] != ':' {
		port = ":" + port
	}

	return "http://" + canopy.EnvVarOrString(hostEnvVar, DefaultHost) + port
}

// defaultAppLogger constructs a [logger.Logger] configured for use in the application.
func defaultAppLogger(env canopy.Environment) logger.Logger {
	return logger.New(
		logger.WithEnv(env.String()),
		logger.WithLevel(envVarOrLogLevel(logLevelEnvVar, logger.LogLevelInfo)),
	)
}

// defaultCache constructs the [resp.FragmentCacher] rendered fragments are stored in.
//
// defaultCache connects to Redis when REDIS_URL is set
// and otherwise keeps fragments in memory.
func defaultCache(l logger.Logger) (resp.FragmentCacher, error) {
	raw := os.Getenv(RedisURLEnvVar)
	if raw == "" {
		return resp.NewFragmentMap(), nil
	}

	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", canopy.ErrNotValid, RedisURLEnvVar, err)
	}

	l.Debug(fmt.Sprintf("caching fragments in redis at %s", opts.Addr), nil)
	return resp.NewFragmentRedis(opts), nil
}

// defaultMiddlewares constructs the [middleware.Adapter] every request passes through.
func defaultMiddlewares(env canopy.Environment, l logger.Logger, reg prometheus.Registerer) []middleware.Adapter {
	var origins []string
	for _, o := range strings.Split(os.Getenv(CORSOriginEnvVar), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return []middleware.Adapter{
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.RateLimit(middleware.NewVisitors()),
		middleware.ForceHTTPS(env),
		middleware.Trace(),
		middleware.Metrics(middleware.WithRegistry(reg)),
		middleware.LogRequest(l),
		middleware.CORS(origins...),
	}
}

// defaultResponder configures the [*resp.Responder] to be used by http.Handlers.
func defaultResponder(
	env canopy.Environment,
	l logger.Logger,
	baseURL *url.URL,
	set *template.Set,
	cache resp.FragmentCacher,
	contact string,
	extra ...resp.ResponderOptFn,
) *resp.Responder {
	opts := []resp.ResponderOptFn{
		resp.WithCache(cache),
		resp.WithContactErrMsg(fmt.Sprintf(contactUsErr, contact)),
		resp.WithErrTemplate(template.ErrorID),
		resp.WithLayout(template.LayoutID, template.WithHTMXSrc(canopy.EnvVarOrString(HTMXSrcEnvVar, template.DefaultHTMXSrc))),
		resp.WithLogger(l),
		resp.WithRootUrl(baseURL.String()),
		resp.WithSet(set),
		resp.WithVerboseErrors(env.VerboseErrors()),
	}

	return resp.NewResponder(append(opts, extra...)...)
}

// defaultRouter constructs a [*router.Router] to be used by the web server.
//
// Requests for HTML matching no route redirect to the base URL.
func defaultRouter(
	env canopy.Environment,
	table *route.Table,
	baseURL *url.URL,
	responder *resp.Responder,
	logReq middleware.Adapter,
	mws []middleware.Adapter,
) *router.Router {
	r := router.New(env, table, logReq)
	r.OnEveryRequest(mws...)
	r.HandleNotFound(func(wx http.ResponseWriter, rx *http.Request) {
		if strings.Contains(rx.Header.Get("Accept"), "text/html") && rx.URL.Path != baseURL.Path {
			responder.Redirect(wx, rx, resp.ToRoot())
			return
		}

		wx.WriteHeader(http.StatusNotFound)
	})

	return r
}

// defaultServer constructs a default [*http.Server].
func defaultServer(ctx context.Context) *http.Server {
	port := canopy.EnvVarOrString(portEnvVar, DefaultPort)
	if port[0] != ':' {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		IdleTimeout:  canopy.EnvVarOrDuration(serverIdleTimeoutEnvVar, DefaultServerIdleTimeout),
		ReadTimeout:  canopy.EnvVarOrDuration(serverReadTimeoutEnvVar, DefaultServerReadTimeout),
		WriteTimeout: canopy.EnvVarOrDuration(serverWriteTimeoutEnvVar, DefaultServerWriteTimeout),
	}
	if ctx != nil {
		srv.BaseContext = func(_ net.Listener) context.Context { return ctx }
	}

	return srv
}

// defaultSet constructs the [*template.Set] HTML responses render from.
//
// defaultSet makes available these functions in every template:
//
//   - "app_title" returns the value set by the APP_TITLE env var
//   - "asset"
//   - "env"
//   - "is_development"
//   - "nonce"
//   - "root_url"
//
// and the URL builder of every route, by route name.
func defaultSet(
	env canopy.Environment,
	l logger.Logger,
	baseURL *url.URL,
	files fs.FS,
	builders template.BuilderLookup,
) *template.Set {
	title := canopy.EnvVarOrString(AppTitleEnvVar, defaultAppTitle)

	return template.NewSet(
		template.WithFS(files),
		template.WithLogger(l),
		template.WithEnv(
			template.WithBuilders(builders),
			template.WithFn(template.AssetURI(env, files)),
			template.WithFn(template.EnvName(env)),
			template.WithFn("is_development", env.IsDevelopment),
			template.WithFn(template.Nonce()),
			template.WithFn(template.RootUrl(baseURL)),
			template.WithFn("app_title", func() string { return title }),
		),
	)
}

// envVarOrLogLevel gets the environment variable from the provided key,
// creates a logger.LogLevel from the retrieved value,
// or returns the provided default logger.LogLevel
// if the value is an unknown logger.LogLevel.
func envVarOrLogLevel(key string, def logger.LogLevel) logger.LogLevel {
	ll := logger.NewLogLevel(strings.ToUpper(os.Getenv(key)))
	if ll == logger.LogLevelUnk {
		return def
	}

	return ll
}
