package api

import (
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"facility-booking-backend/internal/mw"
)

// Options configures the router middleware.
type Options struct {
	RateLimit      rate.Limit
	RateBurst      int
	CacheTTL       time.Duration
	AllowedOrigins []string
	MaxUploadBytes int64
	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath string
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, opts Options, log zerolog.Logger) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(log), mw.CORS(opts.AllowedOrigins))
	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes
	}

	rateLimiter := mw.RateLimiter(mw.NewIPRateLimiter(opts.RateLimit, opts.RateBurst, 10*time.Minute))

	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	// Facility catalog responses; flushed on every admin facility edit.
	h.responses = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	caching := mw.Cache(h.responses, opts.CacheTTL)

	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if opts.MetricsPath != "" {
		r.GET(opts.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/facilities", caching, h.ListFacilities)
		api.GET("/facilities/:id", caching, h.GetFacility)

		api.POST("/bookings", h.CreateBooking)
		api.GET("/users/:user_id/bookings", h.GetUserBookings)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/bookings", h.GetAllBookings)
		admin.GET("/bookings/export", h.ExportBookings)
		admin.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
		admin.PUT("/facilities/:id", h.UpdateFacility)
	}

	return r
}

// useJSONFieldNames makes binding errors name fields as clients send them.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
