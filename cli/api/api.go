package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oaiiae/huma-contacts/cli/datastore"
	"github.com/oaiiae/huma-contacts/handlers"
	"github.com/oaiiae/huma-contacts/router"
	"github.com/oaiiae/huma-contacts/web"
)

type ServerOptions struct {
	Host              string        `short:"H" doc:"host to listen on"                    default:""`
	Port              string        `short:"p" doc:"port to listen on"                    default:"8888"`
	ReadHeaderTimeout time.Duration `          doc:"time allowed to read request headers" default:"15s"`
}

func NewServer(options *ServerOptions, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              options.Host + ":" + options.Port,
		ReadHeaderTimeout: options.ReadHeaderTimeout,
		Handler:           handler,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

type RouterOptions struct {
	EndpointsPrefix string `doc:"mount endpoints at a prefix, not / nor a page path" default:"/api"`
}

var errEndpointsPrefix = errors.New("invalid endpoints prefix")

// reservedSegments are the first path segments served by the pages and
// the operational endpoints.
var reservedSegments = []string{"contacts", "app.css", "app.js", "liveness", "readiness", "metrics"}

// Validate reports whether the endpoints prefix leaves the pages reachable.
func (o *RouterOptions) Validate() error {
	p := o.EndpointsPrefix
	if !strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return fmt.Errorf("%w %q: must start and must not end with /", errEndpointsPrefix, p)
	}
	first, _, _ := strings.Cut(p[1:], "/")
	if slices.Contains(reservedSegments, first) {
		return fmt.Errorf("%w %q: /%s is served by the pages", errEndpointsPrefix, p, first)
	}
	return nil
}

// NewRouter returns the handler serving the pages, the API mounted at
// the endpoints prefix and the operational endpoints, along with the API.
func NewRouter(
	options *RouterOptions,
	title string,
	version string,
	revision string,
	created string,
	logger *slog.Logger,
	backend *datastore.Backend,
) (http.Handler, huma.API) {
	buildinfoMetric := joinQuote("build_info{goversion=", runtime.Version(),
		",title=", title,
		",version=", version,
		",revision=", revision,
		",created=", created,
		"} 1\n")
	metriks := metrics.NewSet()
	meter := newMeter(metriks)
	errorHandler := ctxlog{}.errorHandler(logger)
	return router.New(title, version,
		func(w http.ResponseWriter, r *http.Request) {
			err := backend.Ping(r.Context())
			if err != nil {
				errorHandler(r.Context(), fmt.Errorf("readiness: %w", err))
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		},
		func(w io.Writer) {
			fmt.Fprint(w, buildinfoMetric)
			metriks.WritePrometheus(w)
			metrics.WriteProcessMetrics(w)
		},
		func(r chi.Router) {
			r.Use(
				ctxlog{}.loggerHTTPMiddleware(logger),
				meterHTTPRequests(meter),
				ctxlog{}.recoverHTTPMiddleware(logger),
			)
			(&web.Pages{Store: backend, ErrorHandler: errorHandler}).Routes(r)
		},
		router.OptUseMiddleware(
			ctxlog{}.loggerMiddleware(logger),
			meterRequests(meter),
			ctxlog{}.recoverMiddleware(logger),
		),
		router.OptGroup(options.EndpointsPrefix,
			router.OptGroup("/contacts", router.OptAutoRegister(&handlers.Contacts{
				Store:        backend,
				ErrorHandler: errorHandler,
			})),
		),
	)
}

// ctxlog is a [context.Context] key and acts as a virtual package for operations related to it.
type ctxlog struct{}

// requestLogger returns parent annotated with the id set by [middleware.RequestID].
func (ctxlog) requestLogger(ctx context.Context, parent *slog.Logger) *slog.Logger {
	return parent.With("x-request-id", middleware.GetReqID(ctx))
}

// loggerMiddleware returns a middleware that sets a [slog.Logger] in
// the [context.Context] and logs the request after it has terminated.
func (key ctxlog) loggerMiddleware(parent *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		logger := key.requestLogger(ctx.Context(), parent)

		start := time.Now()
		next(huma.WithValue(ctx, key, logger.WithGroup("op").With("id", ctx.Operation().OperationID)))

		logger.LogAttrs(context.Background(), slog.LevelInfo,
			joinSpace(ctx.Operation().Method, ctx.Operation().Path, ctx.Version().Proto),
			slog.String("from", ctx.RemoteAddr()),
			slog.String("ref", ctx.Header("Referer")),
			slog.String("ua", ctx.Header("User-Agent")),
			slog.Int("status", ctx.Status()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}

// loggerHTTPMiddleware is [ctxlog.loggerMiddleware] for the pages.
func (key ctxlog) loggerHTTPMiddleware(parent *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := key.requestLogger(r.Context(), parent)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), key, logger.WithGroup("page"))))

			logger.LogAttrs(context.Background(), slog.LevelInfo,
				joinSpace(r.Method, routePattern(r), r.Proto),
				slog.String("from", r.RemoteAddr),
				slog.String("ref", r.Referer()),
				slog.String("ua", r.UserAgent()),
				slog.Int("status", status(ww)),
				slog.Duration("dur", time.Since(start)),
			)
		})
	}
}

// recoverMiddleware returns a middleware that recovers and logs the value from panic.
// Also sets status response to [http.StatusInternalServerError].
func (key ctxlog) recoverMiddleware(fallback *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			v := recover()
			if v != nil {
				key.logger(ctx.Context(), fallback).LogAttrs(context.Background(), slog.LevelError,
					"panic occurred", slog.Any("recovered", v))
				ctx.SetStatus(http.StatusInternalServerError)
			}
		}()
		next(ctx)
	}
}

// recoverHTTPMiddleware is [ctxlog.recoverMiddleware] for the pages.
func (key ctxlog) recoverHTTPMiddleware(fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v != nil {
					key.logger(r.Context(), fallback).LogAttrs(context.Background(), slog.LevelError,
						"panic occurred", slog.Any("recovered", v))
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// errorHandler returns a function that gets the [slog.Logger] from [context.Context] and logs the error.
func (key ctxlog) errorHandler(fallback *slog.Logger) func(context.Context, error) {
	return func(ctx context.Context, err error) {
		level := slog.LevelError
		attrs := []slog.Attr{slog.Any("err", err)}

		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.GetStatus() / 100 {
			case 5: //nolint: mnd // 5XX HTTP Status Codes
				level = slog.LevelError
			case 4: //nolint: mnd // 4XX HTTP Status Codes
				level = slog.LevelWarn
			case 3: //nolint: mnd // 3XX HTTP Status Codes
				level = slog.LevelInfo
			}
			attrs = append(attrs, slog.Int("status", statusErr.GetStatus()))
		}

		key.logger(ctx, fallback).LogAttrs(context.Background(), level, "error occurred", attrs...)
	}
}

func (key ctxlog) logger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	logger, ok := ctx.Value(key).(*slog.Logger)
	if !ok {
		return fallback
	}
	return logger
}

// meter counts requests and observes their duration per method, path and status.
type meter func(method, path string, status int, start time.Time)

func newMeter(set *metrics.Set) meter {
	type ref struct {
		*metrics.Counter
		*metrics.PrometheusHistogram
	}

	refs := sync.Map{}
	refsMu := sync.Mutex{}
	buckets := metrics.ExponentialBuckets(1e-3, 5, 6) //nolint: mnd // arbitrary

	return func(method, path string, status int, start time.Time) {
		uid := method + " " + path + " " + strconv.Itoa(status)
		val, ok := refs.Load(uid)
		if !ok {
			refsMu.Lock()
			val, ok = refs.Load(uid)
			if !ok {
				labels := joinQuote("{method=", method, ",path=", path, ",status=", strconv.Itoa(status), "}") //nolint: golines
				val = ref{
					set.NewCounter("http_requests_total" + labels),
					set.NewPrometheusHistogramExt("http_request_duration_seconds"+labels, buckets),
				}
				refs.Store(uid, val)
			}
			refsMu.Unlock()
		}
		valref := val.(ref) //nolint: errcheck // always true
		valref.Counter.Inc()
		valref.PrometheusHistogram.UpdateDuration(start)
	}
}

func meterRequests(m meter) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op, start := ctx.Operation(), time.Now()
		next(ctx)
		m(op.Method, op.Path, ctx.Status(), start)
	}
}

func meterHTTPRequests(m meter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww, start := middleware.NewWrapResponseWriter(w, r.ProtoMajor), time.Now()
			next.ServeHTTP(ww, r)
			m(r.Method, routePattern(r), status(ww), start)
		})
	}
}

// routePattern returns the matched chi pattern, so metrics do not grow with contact ids.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.RoutePattern() == "" {
		return "unmatched"
	}
	return rctx.RoutePattern()
}

// status returns the status written through ww, 200 when nothing was written.
func status(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// joinQuote is [strings.Join] with " as separator.
func joinQuote(elems ...string) string { return strings.Join(elems, `"`) }

// joinSpace is [strings.Join] with space as separator.
func joinSpace(elems ...string) string { return strings.Join(elems, ` `) }
