package router

import (
	"net/http"
	"time"

	"petport/internal/domain/care"
	"petport/internal/domain/contacts"
	"petport/internal/domain/gifts"
	"petport/internal/domain/medical"
	"petport/internal/domain/pets"
	"petport/internal/domain/photos"
	"petport/internal/domain/referrals"
	"petport/internal/domain/reviews"
	"petport/internal/domain/share"
	"petport/internal/domain/subscribers"
	"petport/internal/jobs"
	"petport/internal/middleware"
	"petport/internal/platform/logger"
	"petport/internal/platform/metrics"

	_ "petport/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

func NewRouter(opts Options) (http.Handler, error) {
	svcs, err := NewServices(opts)
	if err != nil {
		return nil, err
	}
	return Mount(opts, svcs), nil
}

// Mount arma el chi.Router sobre servicios ya construidos.
func Mount(opts Options, svcs *Services) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	var admins []string
	var cronSecret string
	rps, burst := 0.0, 0
	if opts.Config != nil {
		admins = opts.Config.AdminEmailList()
		cronSecret = opts.Config.CronSecret
		rps, burst = opts.Config.RateLimitRPS, opts.Config.RateLimitBurst
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Recover(log))
	r.Use(middleware.CORS())

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	limiter := middleware.NewRateLimiter(rps, burst, log)
	if opts.Done != nil {
		limiter.StartCleanup(5*time.Minute, opts.Done)
	}

	// Rutas por módulo
	pets.RegisterRoutes(r, svcs.Pets)
	contacts.RegisterRoutes(r, svcs.Contacts)
	medical.RegisterRoutes(r, svcs.Medical)
	care.RegisterRoutes(r, svcs.Care)
	photos.RegisterRoutes(r, svcs.Photos)
	subscribers.RegisterRoutes(r, svcs.Subscribers)
	referrals.RegisterRoutes(r, svcs.Referrals)
	gifts.RegisterRoutes(r, svcs.Gifts, limiter.Handler)
	reviews.RegisterRoutes(r, svcs.Reviews)

	// Públicas (sin sesión), con rate limit
	r.Group(func(pr chi.Router) {
		pr.Use(limiter.Handler)
		pets.RegisterPublicRoutes(pr, svcs.Pets)
		photos.RegisterPublicRoutes(pr, svcs.Photos)
		reviews.RegisterPublicRoutes(pr, svcs.Reviews)
		share.RegisterRoutes(pr, svcs.Share)
	})

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middleware.AdminOnly(admins))
		gifts.RegisterAdminRoutes(ar, svcs.Gifts)
		referrals.RegisterAdminRoutes(ar, svcs.Referrals)
		reviews.RegisterAdminRoutes(ar, svcs.Reviews)
	})

	r.Group(func(cr chi.Router) {
		cr.Use(middleware.CronAuth(cronSecret))
		jobs.RegisterRoutes(cr, svcs.Jobs)
	})

	return r
}
