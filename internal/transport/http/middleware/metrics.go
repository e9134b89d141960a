package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpReqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Count of HTTP requests"},
		[]string{"path", "method", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"},
	)

	// Submissions counts accepted public submissions by kind (contact, enquiry, register).
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quartz_submissions_total", Help: "Accepted public submissions"},
		[]string{"kind"},
	)
	// Logins counts login attempts by result (success, failure).
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quartz_logins_total", Help: "Login attempts"},
		[]string{"result"},
	)
)

func init() { prometheus.MustRegister(httpReqTotal, httpLatency, Submissions, Logins) }

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpReqTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func MetricsHandler() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }
