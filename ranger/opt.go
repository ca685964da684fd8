package ranger

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/http/middleware"
	"github.com/xy-planning-network/canopy/http/resp"
	"github.com/xy-planning-network/canopy/logger"
)

// A RangerOption configures a *Ranger either (1) directly, immediately upon being called
// or (2) in the OptFollowup it returns.
// Some RangerOptions require components New builds after all options run,
// and thus an OptFollowup can be returned in order to be called at a later time
// when those components are available.
//
// WithLogger is an example of the first.
// An unexported field on the passed in *Ranger is updated with the enclosed value.
//
// WithServer is an example of the second.
// The *http.Server serves the *Ranger's router only when the closure it returns is called.
type RangerOption func(rng *Ranger) (OptFollowup, error)
type OptFollowup func() error

// WithCache sets the resp.FragmentCacher responses rendered with resp.Cached are stored in.
func WithCache(c resp.FragmentCacher) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if c == nil {
			return nil, fmt.Errorf("%w: nil cache", canopy.ErrMissingData)
		}

		rng.cache = c
		return nil, nil
	}
}

// WithContext exposes the provided context.Context to the canopy app.
// Requests the web server handles inherit ctx, and cancelling ctx stops Guide.
func WithContext(ctx context.Context) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if ctx == nil {
			return nil, fmt.Errorf("%w: nil context", canopy.ErrMissingData)
		}

		rng.ctx = ctx
		return nil, nil
	}
}

// WithEnv sets the Environment the canopy app runs in,
// instead of reading it from the ENVIRONMENT environment variable.
func WithEnv(env canopy.Environment) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if err := env.Valid(); err != nil {
			return nil, fmt.Errorf("%w: environment %q", err, env)
		}

		rng.env = env
		return nil, nil
	}
}

// WithFS sets the filesystem templates are read from,
// instead of the directory set by the TEMPLATE_DIR environment variable.
func WithFS(files fs.FS) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if files == nil {
			return nil, fmt.Errorf("%w: nil filesystem", canopy.ErrMissingData)
		}

		rng.fs = files
		return nil, nil
	}
}

// WithLogger exposes the provided logger.Logger to the canopy app.
func WithLogger(l logger.Logger) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if l == nil {
			return nil, fmt.Errorf("%w: nil logger", canopy.ErrMissingData)
		}

		rng.l = l
		return nil, nil
	}
}

// WithMiddlewares replaces the middleware.Adapter stack every request passes through.
func WithMiddlewares(mws ...middleware.Adapter) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.mws = append(make([]middleware.Adapter, 0, len(mws)), mws...)
		return nil, nil
	}
}

// WithRegistry sets where the request metrics of the canopy app are registered,
// instead of prometheus.DefaultRegisterer.
func WithRegistry(reg prometheus.Registerer) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if reg == nil {
			return nil, fmt.Errorf("%w: nil registry", canopy.ErrMissingData)
		}

		rng.reg = reg
		return nil, nil
	}
}

// WithResponderOpts applies opts to the *resp.Responder after the defaults.
func WithResponderOpts(opts ...resp.ResponderOptFn) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.respOpts = append(rng.respOpts, opts...)
		return nil, nil
	}
}

// WithServer constructs a followup option that, when called,
// sets the *http.Server serving the canopy app's router.
func WithServer(s *http.Server) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if s == nil {
			return nil, fmt.Errorf("%w: nil server", canopy.ErrMissingData)
		}

		return func() error {
			s.Handler = rng.Router
			rng.srv = s
			rng.l.Debug(fmt.Sprintf("using server at %s", s.Addr), nil)

			return nil
		}, nil
	}
}
