package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/auth"
	"github.com/donorlink/donorlink/internal/events"
	"github.com/donorlink/donorlink/internal/handlers"
	"github.com/donorlink/donorlink/internal/httpx"
	"github.com/donorlink/donorlink/internal/middleware"
	"github.com/donorlink/donorlink/internal/models"
	"github.com/donorlink/donorlink/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, bus events.Publisher) http.Handler {
	r := mux.NewRouter()

	// Session cookies only carry the user id; resolve the role from the store.
	auth.SetRoleResolver(func(_ context.Context, uid uint) (string, bool) {
		var user models.User
		if err := db.Select("role").First(&user, uid).Error; err != nil {
			return "", false
		}
		return user.Role, true
	})

	// --- Health endpoints ---
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Lightweight DB check (SELECT 1)
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// Auth endpoints
	ah := handlers.NewAuthHandler(db)
	r.HandleFunc("/signup", ah.Signup).Methods(http.MethodPost)
	r.HandleFunc("/login", ah.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", ah.Logout).Methods(http.MethodPost)

	// Directory endpoints
	dh := handlers.NewDonorHandler(db)
	r.HandleFunc("/donors", dh.List).Methods(http.MethodGet)
	r.Handle("/donors", auth.RequireRole(models.RoleAdmin, http.HandlerFunc(dh.Create))).Methods(http.MethodPost)
	r.HandleFunc("/donors/{id:[0-9]+}", dh.Get).Methods(http.MethodGet)

	rh := handlers.NewRecipientHandler(db)
	r.HandleFunc("/recipients", rh.List).Methods(http.MethodGet)
	r.Handle("/recipients", auth.RequireRole(models.RoleAdmin, http.HandlerFunc(rh.Create))).Methods(http.MethodPost)
	r.HandleFunc("/recipients/{id:[0-9]+}", rh.Get).Methods(http.MethodGet)

	nh := handlers.NewNGOHandler(db)
	r.HandleFunc("/ngos", nh.List).Methods(http.MethodGet)
	r.Handle("/ngos", auth.RequireRole(models.RoleAdmin, http.HandlerFunc(nh.Create))).Methods(http.MethodPost)
	r.HandleFunc("/ngos/{id:[0-9]+}", nh.Get).Methods(http.MethodGet)

	// Donations
	matcher := services.NewMatchingService(db, bus)
	lifecycle := services.NewLifecycleService(db, bus)
	donh := handlers.NewDonationHandler(db, matcher, lifecycle)
	r.HandleFunc("/donations", donh.List).Methods(http.MethodGet)
	r.Handle("/donations", auth.RequireRole(models.RoleDonor, http.HandlerFunc(donh.Create))).Methods(http.MethodPost)
	r.HandleFunc("/donations/{id:[0-9]+}", donh.Get).Methods(http.MethodGet)
	r.Handle("/donations/{id:[0-9]+}", auth.RequireRole(models.RoleDonor, http.HandlerFunc(donh.Update))).Methods(http.MethodPut)
	r.Handle("/donations/{id:[0-9]+}", auth.RequireRole(models.RoleDonor, http.HandlerFunc(donh.Delete))).Methods(http.MethodDelete)
	r.Handle("/donations/{id:[0-9]+}/match", auth.RequireAuth(http.HandlerFunc(donh.Match))).Methods(http.MethodPost)
	r.Handle("/donations/{id:[0-9]+}/transition", auth.RequireRole(models.RoleNGO, http.HandlerFunc(donh.Transition))).Methods(http.MethodPost)

	// Requests
	reqh := handlers.NewRequestHandler(db, lifecycle)
	r.HandleFunc("/requests", reqh.List).Methods(http.MethodGet)
	r.Handle("/requests", auth.RequireRole(models.RoleRecipient, http.HandlerFunc(reqh.Create))).Methods(http.MethodPost)
	r.HandleFunc("/requests/{id:[0-9]+}", reqh.Get).Methods(http.MethodGet)
	r.Handle("/requests/{id:[0-9]+}", auth.RequireRole(models.RoleRecipient, http.HandlerFunc(reqh.Update))).Methods(http.MethodPut)
	r.Handle("/requests/{id:[0-9]+}", auth.RequireRole(models.RoleRecipient, http.HandlerFunc(reqh.Delete))).Methods(http.MethodDelete)
	r.Handle("/requests/{id:[0-9]+}/transition", auth.RequireRole(models.RoleNGO, http.HandlerFunc(reqh.Transition))).Methods(http.MethodPost)

	// Feedback
	fh := handlers.NewFeedbackHandler(db)
	r.HandleFunc("/feedback", fh.List).Methods(http.MethodGet)
	r.Handle("/feedback", auth.RequireAuth(http.HandlerFunc(fh.Create))).Methods(http.MethodPost)

	// Reporting
	sh := handlers.NewStatsHandler(services.NewStatsService(db))
	r.HandleFunc("/stats/dashboard", sh.Dashboard).Methods(http.MethodGet)

	// Notifications
	noth := handlers.NewNotificationHandler(db)
	r.Handle("/notifications", auth.RequireAuth(http.HandlerFunc(noth.List))).Methods(http.MethodGet)
	r.Handle("/notifications/{id:[0-9]+}/read", auth.RequireAuth(http.HandlerFunc(noth.MarkRead))).Methods(http.MethodPost)

	return middleware.CORS(auth.Middleware(withRecover(withLogging(r))))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
