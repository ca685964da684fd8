/*
Package logger provides logging functionality to a canopy app by defining the required behavior in [Logger]
and providing an implementation of it with [CanopyLogger].

# Overview

The Logger interface outputs messages at certain levels of importance.
LogLevel is the type to use to represent those levels.
An implementation of Logger may be initialized at a certain [LogLevel]
and only emit messages at or above that level of importance.
For example, [CanopyLogger] accepts a [LogLevel],
and if initialized with [LogLevelWarn],
only [*CanopyLogger.Warn], [*CanopyLogger.Error], and [*CanopyLogger.Fatal] produce messages.

# CanopyLogger

Log messages emitted by [CanopyLogger] are composed of a few parts:
  - timestamp
  - log level
  - call site
  - message
  - log context

Here's an example:

	2024/04/28 15:55:21 [ERROR] template/set.go:143 'cannot compile' log_context: {"error":"tmpl/items.html:3:7: unknown name: itm","source":"tmpl/items.html"}

The log context is a JSON-encoded [LogContext].
Compile-time failures set [LogContext.Source] to the template source ID or route pattern
that needs fixing.

# SkipLogger

Sometimes, especially with internal packages, the file and line number in a log needs to be configurable.
[SkipLogger] provides additional configuration functionality by setting the number of frames to skip
back in order to reach the desired caller.
*/
package logger
