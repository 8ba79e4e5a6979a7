package serpleno

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/serpleno/serpleno/internal/http/handlers/account/redirecthome"
	"github.com/serpleno/serpleno/internal/http/handlers/account/updateplan"
	"github.com/serpleno/serpleno/internal/http/handlers/account/validatestudent"
	admincontentcreate "github.com/serpleno/serpleno/internal/http/handlers/admin/content/create"
	admincontentlist "github.com/serpleno/serpleno/internal/http/handlers/admin/content/list"
	admincontentremove "github.com/serpleno/serpleno/internal/http/handlers/admin/content/remove"
	admincontentupdate "github.com/serpleno/serpleno/internal/http/handlers/admin/content/update"
	admindashboard "github.com/serpleno/serpleno/internal/http/handlers/admin/dashboard"
	"github.com/serpleno/serpleno/internal/http/handlers/admin/stats"
	userslist "github.com/serpleno/serpleno/internal/http/handlers/admin/users/list"
	usersremove "github.com/serpleno/serpleno/internal/http/handlers/admin/users/remove"
	"github.com/serpleno/serpleno/internal/http/handlers/admin/users/updaterole"
	"github.com/serpleno/serpleno/internal/http/handlers/auth/login"
	"github.com/serpleno/serpleno/internal/http/handlers/auth/register"
	"github.com/serpleno/serpleno/internal/http/handlers/client/home"
	"github.com/serpleno/serpleno/internal/http/handlers/client/notices"
	"github.com/serpleno/serpleno/internal/http/handlers/client/portal"
	contentlist "github.com/serpleno/serpleno/internal/http/handlers/content/list"
	"github.com/serpleno/serpleno/internal/http/handlers/health"
	"github.com/serpleno/serpleno/internal/http/handlers/payment/checkout"
	"github.com/serpleno/serpleno/internal/http/handlers/payment/result"
	"github.com/serpleno/serpleno/internal/http/handlers/plans/catalog"
	"github.com/serpleno/serpleno/internal/http/handlers/plans/detail"
	"github.com/serpleno/serpleno/internal/http/handlers/pro/calendar/addslot"
	"github.com/serpleno/serpleno/internal/http/handlers/pro/calendar/month"
	"github.com/serpleno/serpleno/internal/http/handlers/pro/calendar/removeslot"
	"github.com/serpleno/serpleno/internal/http/handlers/pro/calendar/updateslot"
	procontent "github.com/serpleno/serpleno/internal/http/handlers/pro/content"
	prodashboard "github.com/serpleno/serpleno/internal/http/handlers/pro/dashboard"
	notificationslist "github.com/serpleno/serpleno/internal/http/handlers/pro/notifications/list"
	"github.com/serpleno/serpleno/internal/http/handlers/pro/notifications/mark"
	uploadcreate "github.com/serpleno/serpleno/internal/http/handlers/pro/upload/create"
	uploadlist "github.com/serpleno/serpleno/internal/http/handlers/pro/upload/list"
	uploadremove "github.com/serpleno/serpleno/internal/http/handlers/pro/upload/remove"
	uploadupdate "github.com/serpleno/serpleno/internal/http/handlers/pro/upload/update"
	"github.com/serpleno/serpleno/internal/http/handlers/schedule/book"
	"github.com/serpleno/serpleno/internal/http/handlers/schedule/meeting"
	"github.com/serpleno/serpleno/internal/http/handlers/schedule/professionals"
	"github.com/serpleno/serpleno/internal/http/handlers/schedule/slots"
	"github.com/serpleno/serpleno/internal/http/handlers/schedule/types"
	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/request"
	"github.com/serpleno/serpleno/internal/policy"
	accountservice "github.com/serpleno/serpleno/internal/services/account"
	adminservice "github.com/serpleno/serpleno/internal/services/admin"
	authservice "github.com/serpleno/serpleno/internal/services/auth"
	calendarservice "github.com/serpleno/serpleno/internal/services/calendar"
	contentservice "github.com/serpleno/serpleno/internal/services/content"
	notificationservice "github.com/serpleno/serpleno/internal/services/notification"
	paymentservice "github.com/serpleno/serpleno/internal/services/payment"
	scheduleservice "github.com/serpleno/serpleno/internal/services/schedule"
	uploadservice "github.com/serpleno/serpleno/internal/services/upload"
)

// Deps: всё, что нужно маршрутам.
type Deps struct {
	Logger   *slog.Logger
	Verifier middlewarectx.Verifier
	Metrics  interface {
		Middleware(next http.Handler) http.Handler
	}
	Files interface {
		Dir() string
	}
	Checks  map[string]health.Check
	Limits  request.Limits
	RPS     float64
	Burst   int
	Origins []string

	Auth         *authservice.AuthService
	Account      *accountservice.AccountService
	Content      *contentservice.ContentService
	Schedule     *scheduleservice.ScheduleService
	Calendar     *calendarservice.CalendarService
	Upload       *uploadservice.UploadService
	Notification *notificationservice.NotificationService
	Admin        *adminservice.AdminService
	Payment      *paymentservice.PaymentService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	logger := d.Logger
	auth := middlewarectx.NewAuth(d.Verifier, logger)

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   d.Origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		d.Metrics.Middleware,
	)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
	r.Get("/healthz", health.New(logger, d.Checks).ServeHTTP)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.Files.Dir()))))

	// Открытые конечные точки
	r.Route("/auth", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, d.RPS, d.Burst))
		r.Post("/login", login.New(logger, d.Auth).ServeHTTP)
		r.Post("/register", register.New(logger, d.Auth).ServeHTTP)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth)
		r.Get("/plans", catalog.New(d.Payment).ServeHTTP)
		r.Get("/plan/detail", detail.New(logger, d.Payment).ServeHTTP)
	})

	// Группа с JWT аутентификацией
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Post("/validate-student", validatestudent.New(logger, d.Account).ServeHTTP)
		r.Post("/update-plan", updateplan.New(logger, d.Account).ServeHTTP)
		r.Get("/redirect-home", redirecthome.ServeHTTP)

		r.Get("/home", home.ServeHTTP)
		r.Get("/content", contentlist.New(logger, d.Content).ServeHTTP)
		r.Get("/notifications", notices.New(d.Notification).ServeHTTP)
		r.Get("/pay", checkout.New(logger, d.Payment).ServeHTTP)
		r.Get("/pay/result", result.New(logger, d.Payment).ServeHTTP)

		r.Get("/schedule/types", types.New(logger, d.Schedule).ServeHTTP)
		r.Get("/schedule/professionals", professionals.New(logger, d.Schedule).ServeHTTP)
		r.Get("/schedule/slots", slots.New(logger, d.Schedule).ServeHTTP)

		r.With(middlewarectx.Require(logger, policy.ViewPortal)).Get("/portal", portal.ServeHTTP)
		r.With(middlewarectx.Require(logger, policy.BookAppointment)).Post("/schedule/book", book.New(logger, d.Schedule).ServeHTTP)
		r.With(middlewarectx.Require(logger, policy.ViewMeeting)).Get("/meeting", meeting.New(logger, d.Schedule).ServeHTTP)

		r.Route("/pro", func(r chi.Router) {
			r.Use(middlewarectx.Require(logger, policy.ProArea))

			r.Get("/dashboard", prodashboard.ServeHTTP)
			r.Get("/content", procontent.New(logger, d.Content).ServeHTTP)

			r.Post("/upload", uploadcreate.New(logger, d.Upload, d.Limits).ServeHTTP)
			r.Get("/upload/list", uploadlist.New(logger, d.Upload).ServeHTTP)
			r.Put("/upload/{id}", uploadupdate.New(logger, d.Upload, d.Limits).ServeHTTP)
			r.Delete("/upload/{id}", uploadremove.New(logger, d.Upload).ServeHTTP)

			r.Get("/notifications", notificationslist.New(logger, d.Notification).ServeHTTP)
			r.Post("/notifications/{id}/read", mark.New(logger, d.Notification, true).ServeHTTP)
			r.Post("/notifications/{id}/unread", mark.New(logger, d.Notification, false).ServeHTTP)

			r.Get("/calendar", month.New(logger, d.Calendar).ServeHTTP)
			r.Post("/calendar/slot", addslot.New(logger, d.Calendar).ServeHTTP)
			r.Put("/calendar/slot/{id}", updateslot.New(logger, d.Calendar).ServeHTTP)
			r.Delete("/calendar/slot/{id}", removeslot.New(logger, d.Calendar).ServeHTTP)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.Require(logger, policy.AdminArea))
				r.Get("/dashboard", admindashboard.New(logger, d.Admin).ServeHTTP)
				r.Get("/stats", stats.New(logger, d.Admin).ServeHTTP)
				r.Get("/users", userslist.New(logger, d.Admin).ServeHTTP)
				r.Post("/users/update-role", updaterole.New(logger, d.Admin).ServeHTTP)
				r.Delete("/users/{id}", usersremove.New(logger, d.Admin).ServeHTTP)
			})

			// Контентом управляют и профессионалы, поэтому отдельная проверка
			r.Route("/content", func(r chi.Router) {
				r.Use(middlewarectx.Require(logger, policy.ManageContent))
				r.Get("/", admincontentlist.New(logger, d.Content).ServeHTTP)
				r.Post("/", admincontentcreate.New(logger, d.Content, d.Limits).ServeHTTP)
				r.Put("/{id}", admincontentupdate.New(logger, d.Content, d.Limits).ServeHTTP)
				r.Delete("/{id}", admincontentremove.New(logger, d.Content).ServeHTTP)
			})
		})
	})
}
