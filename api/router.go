package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/internal/auth"
)

type Handlers struct {
	Schedules *ScheduleHandler
	Bookings  *BookingHandler
	Tickets   *TicketHandler
	Travelers *TravelerHandler
	Admin     *AdminHandler
}

type RouterConfig struct {
	AllowedOrigins []string
	// Auth is nil when authentication is disabled; every route is then open.
	Auth *auth.Manager
}

// NewRouter mounts the REST surface under /api/v1.
func NewRouter(h Handlers, cfg RouterConfig, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(log), CORS(cfg.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	h.Schedules.Register(v1.Group("/schedules"))

	private := v1.Group("")
	staff := v1.Group("/staff")
	admin := v1.Group("/admin")
	if cfg.Auth != nil {
		authn := auth.Authenticate(cfg.Auth, log)
		private.Use(authn)
		staff.Use(authn, auth.RequireRole(auth.RoleStaff, auth.RoleAdmin))
		admin.Use(authn, auth.RequireRole(auth.RoleAdmin))
	}

	h.Bookings.Register(private.Group("/bookings"))
	h.Tickets.Register(private.Group("/tickets"))
	h.Travelers.Register(private.Group("/travelers"))

	h.Schedules.RegisterAdmin(admin.Group("/schedules"))
	h.Admin.Register(admin)
	h.Admin.RegisterStaff(staff)
	return r
}
