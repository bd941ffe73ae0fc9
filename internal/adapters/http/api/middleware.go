package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/okian/churnrisk/pkg/logger"
	"github.com/okian/churnrisk/pkg/metrics"
)

// HTTP status code constants.
const (
	statusBadRequest      = 400
	statusNotFound        = 404
	statusTooManyRequests = 429
	statusInternalError   = 500
)

// limiterIdleTTL is how long an idle client's limiter is kept.
const limiterIdleTTL = 10 * time.Minute

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		durationMs := float64(time.Since(start).Microseconds()) / 1000
		statusCodeStr := strconv.Itoa(status)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)

		if status >= statusBadRequest {
			errorType := getErrorType(status)
			severity := getErrorSeverity(status)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorByType(errorType, severity)
			metrics.RecordErrorLatency("http", errorType, durationMs)
		}
	}
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// getErrorSeverity returns error severity based on HTTP status code.
func getErrorSeverity(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "high"
	case statusCode >= statusBadRequest:
		return "medium"
	default:
		return "low"
	}
}

// RequestLogger logs one line per request with the chi request id.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info(r.Context(), "served request",
					logger.String("method", r.Method),
					logger.String("path", r.URL.Path),
					logger.String("remoteAddr", r.RemoteAddr),
					logger.Int("status", ww.Status()),
					logger.Int("bytes", ww.BytesWritten()),
					logger.Float64("latencyMs", float64(time.Since(start).Microseconds())/1000),
					logger.String("requestID", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// Chain wraps h with request id, real IP, panic recovery and request
// logging, outermost first.
func Chain(h http.Handler, log logger.Logger) http.Handler {
	return middleware.RequestID(middleware.RealIP(middleware.Recoverer(RequestLogger(log)(h))))
}

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	limiters sync.Map
	rps      rate.Limit
	burst    int
	logger   logger.Logger
}

// NewRateLimiter returns nil when rps is not positive, which disables
// limiting. Idle limiters are swept until ctx is done.
func NewRateLimiter(ctx context.Context, rps float64, burst int, log logger.Logger) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{rps: rate.Limit(rps), burst: burst, logger: log}
	go rl.cleanup(ctx)
	return rl
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	if l, ok := rl.limiters.Load(ip); ok {
		return l.(*rate.Limiter)
	}
	l, _ := rl.limiters.LoadOrStore(ip, rate.NewLimiter(rl.rps, rl.burst))
	return l.(*rate.Limiter)
}

func (rl *RateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.limiters.Range(func(key, value any) bool {
				// A full bucket means the client has been idle.
				if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
					rl.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

// clientIP expects middleware.RealIP to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Middleware rejects requests over the client's budget with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.limiter(ip).Allow() {
			metrics.RecordRateLimited()
			if rl.logger != nil {
				rl.logger.Warn(r.Context(), "rate limit exceeded", logger.String("ip", ip))
			}
			writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind("api.rate_limit", ErrRateLimited))
			return
		}
		next.ServeHTTP(w, r)
	})
}
