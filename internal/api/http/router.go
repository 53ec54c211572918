package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/heritage-archive/archive-service/internal/api/http/handlers"
	"github.com/heritage-archive/archive-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Me             *handlers.MeHandler
	Friends        *handlers.FriendsHandler
	Notifications  *handlers.NotificationsHandler
	Media          *handlers.MediaHandler
	Tasks          *handlers.TasksHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/me", cfg.Me.Get)

	friends := protected.Group("/friends")
	friends.Get("", cfg.Friends.List)
	friends.Get("/requests/incoming", cfg.Friends.ListIncoming)
	friends.Get("/requests/outgoing", cfg.Friends.ListOutgoing)
	friends.Post("/requests", cfg.Friends.Request)
	friends.Post("/requests/:initiatorId/accept", cfg.Friends.Accept)
	friends.Post("/blocks", cfg.Friends.Block)
	friends.Delete("/blocks/:userId", cfg.Friends.Unblock)
	friends.Post("/invites", cfg.Friends.Invite)
	friends.Post("/invites/accept", cfg.Friends.AcceptInvite)
	friends.Delete("/:userId", cfg.Friends.Remove)

	notifications := protected.Group("/notifications")
	notifications.Get("", cfg.Notifications.List)
	notifications.Post("/read", cfg.Notifications.MarkRead)

	media := protected.Group("/media")
	media.Post("/upload-url", cfg.Media.UploadURL)
	media.Post("", cfg.Media.Register)
	media.Get("", cfg.Media.ListOwn)
	media.Get("/:id", cfg.Media.Get)
	media.Post("/:id/processing", cfg.Media.StartProcessing)
	media.Get("/:id/transcript", cfg.Media.GetTranscript)
	media.Get("/:id/transcript/versions", cfg.Media.ListTranscriptVersions)
	media.Post("/:id/transcript/review", cfg.Media.ReviewTranscript)

	protected.Get("/tasks/:id", cfg.Tasks.Get)

	admin := protected.Group("/admin", auth.RequireAdmin())
	admin.Get("/media", cfg.Admin.ListMedia)
	admin.Post("/media/:id/approve", cfg.Admin.ApproveMedia)
	admin.Post("/media/:id/reject", cfg.Admin.RejectMedia)
	admin.Get("/batch-jobs", cfg.Admin.ListBatchJobs)
	admin.Get("/metrics", cfg.Admin.GetMetrics)
}
