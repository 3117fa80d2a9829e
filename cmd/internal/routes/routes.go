package routes

import (
	"github.com/labstack/echo/v4"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/integration/identity"
	"nutricare/cmd/internal/utils/apierror"
	"strconv"
	"strings"
)

type Routes struct {
	Applications *DefaultApplicationRoute
	Appointments *DefaultAppointmentRoute
	Sessions     *DefaultSessionRoute
	Chat         *DefaultChatRoute
	Notes        *DefaultNoteRoute
	Permissions  *DefaultPermissionRoute
	Health       *DefaultHealthRoute
	Users        *DefaultUserRoute
}

// Mount registers every endpoint on g behind auth.
func (r *Routes) Mount(g *echo.Group, auth echo.MiddlewareFunc) {
	g.Use(auth)
	client := identity.RequireRole(entity.RoleClient)
	consultant := identity.RequireRole(entity.RoleConsultant)

	// Applications
	g.POST("/applications", r.Applications.Apply, client)
	g.GET("/applications/me", r.Applications.ListMine, client)
	g.GET("/applications/consultant/me", r.Applications.ListIncoming, consultant)
	g.POST("/applications/:id/reject", r.Applications.Reject, consultant)
	g.POST("/applications/:id/accept", r.Applications.Accept, consultant)
	g.POST("/applications/:id/cancel", r.Applications.Cancel, client)

	// Appointments
	g.GET("/appointments/me", r.Appointments.ListMine, client)
	g.GET("/appointments/consultant/me", r.Appointments.ListConsultant, consultant)
	g.GET("/appointments/calendar", r.Appointments.GetCalendar, consultant)
	g.GET("/appointments/:id/room", r.Appointments.GetRoom)
	g.POST("/appointments/:id/resolve", r.Appointments.Resolve, consultant)

	// Session lifecycle
	g.POST("/sessions/appointments/:id/start", r.Sessions.Start, consultant)
	g.POST("/sessions/appointments/:id/end", r.Sessions.End, consultant)

	// Chat and live relay
	g.GET("/sessions/rooms/:roomId/messages", r.Chat.ListMessages)
	g.POST("/sessions/rooms/:roomId/messages", r.Chat.PostMessage)
	g.GET("/sessions/rooms/:roomId/ws", r.Chat.Connect)
	g.GET("/sessions/rooms/:roomId/online", r.Chat.Online)

	// Notes
	g.GET("/sessions/appointments/:id/note", r.Notes.GetNote)
	g.PUT("/sessions/appointments/:id/note", r.Notes.PutNote, consultant)

	// Gated health reads and session-scoped consent
	g.GET("/sessions/appointments/:id/client-health", r.Health.GetClientHealth, consultant)
	g.GET("/sessions/appointments/:id/client-health/:resource", r.Health.GetClientHealth, consultant)
	g.GET("/sessions/appointments/:id/permissions", r.Permissions.ListForAppointment)
	g.PUT("/sessions/appointments/:id/permissions", r.Permissions.GrantForAppointment, client)

	// Consent registry
	g.GET("/permissions/me", r.Permissions.List, client)
	g.POST("/permissions/me/grant", r.Permissions.Grant, client)
	g.POST("/permissions/me/revoke", r.Permissions.Revoke, client)
	g.GET("/permissions/me/audit", r.Permissions.Audit, client)

	// Consultant edits of client records
	g.PUT("/consultant/users/:userId/nutrition-target", r.Health.PutClientTarget, consultant)
	g.PUT("/consultant/users/:userId/goal", r.Health.PutClientGoal, consultant)
	g.PUT("/consultant/users/:userId/data", r.Health.PutClientData, consultant)

	// Self-service records
	g.GET("/me/health", r.Health.GetOwnHealth)
	g.PUT("/me/nutrition-target", r.Health.PutOwnTarget)
	g.PUT("/me/goal", r.Health.PutOwnGoal)
	g.PUT("/me/data", r.Health.PutOwnData)

	// Users
	g.GET("/users/:id", r.Users.GetUser)
}

func principalID(c echo.Context) (int, bool) {
	p := identity.PrincipalFromCtx(c)
	if p == nil {
		return 0, false
	}
	return p.UserID, true
}

func intParam(c echo.Context, name string) (int, apierror.ErrorResponse) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, apierror.NewMissingParamError(name)
	}

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apierror.NewInvalidParamTypeError(name, "a positive integer")
	}
	return id, nil
}

// optionalIntQuery returns nil when the query parameter is absent.
func optionalIntQuery(c echo.Context, name string) (*int, apierror.ErrorResponse) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return nil, apierror.NewInvalidParamTypeError(name, "a positive integer")
	}
	return &n, nil
}
