/*
Package ranger initializes and manages a canopy app with sane defaults.

# Ranger

The main entrypoint to package ranger is the [Ranger] type.
A [Ranger] ought to be constructed with [New].

A [Ranger] embeds the [*resp.Responder] handlers respond with
and the [*router.Router] handlers are registered on.
Templates are declared on the [*template.Set] from [*Ranger.EmitSet].
Every template can call the URL builder of any route by the route's name.

[*Ranger.Guide] compiles every template, freezes the template set and route table,
and begins a canopy app's web server.
By default, [*Ranger.Guide] listens on [DefaultHost]:[DefaultPort] (localhost:3000),
assuming either a reverse proxy proxies requests
or only a client application makes direct requests to the canopy web server.

Stop that web server with [*Ranger.Shutdown],
call [*Ranger.Cancel],
or send a signal [*Ranger.Guide] listens for.

# Configuration

A developer configures a canopy app through environment variables
and by passing a [RangerOption] to [New].

Environment variables ought to be set in a file called ".env"
found at the same directory the application is executed from.

Here are the available environment variables.
  - APP_TITLE: a short title for the application, callable as app_title() in templates; default: canopy
  - BASE_URL: the base URL the application runs on; replaces HOST & PORT
  - CONTACT_US_EMAIL: the email address end users can contact XYPN at; default: hello@xyplanningnetwork.com
  - CORS_ORIGIN: a comma-separated list of origins allowed cross-origin requests; default: none
  - ENVIRONMENT: the environment the application is running in; cf. [canopy.Environment]
  - HOST: the host the application is running on; default: localhost
  - HTMX_SRC: where the default layout loads htmx from; default: [template.DefaultHTMXSrc]
  - LOG_LEVEL: the level at which to begin logging; default: INFO; cf. [logger.LogLevel]
  - PORT: the port the application should listen on; default: :3000
  - REDIS_URL: a Redis URL to cache rendered fragments in; default: an in-memory cache
  - SENTRY_DSN: the DSN errors are reported to; default: none
  - SERVER_IDLE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for idling between requests when using keep-alives; default: 120s
  - SERVER_READ_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for reading HTTP requests; default: 5s
  - SERVER_WRITE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for writing HTTP responses; default: 5s
  - TEMPLATE_DIR: the directory templates are read from; default: the working directory
*/
package ranger
