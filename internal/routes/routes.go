package routes

import (
	"github.com/gin-gonic/gin"

	"taskflow/internal/handlers"
	"taskflow/internal/middleware"
)

// SetupRoutes builds the development API: REST routes under /api and the
// task event socket at /socket.
func SetupRoutes(h *handlers.Handler) *gin.Engine {
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())

	// CORS for browser clients pointed at the development server
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", c.GetHeader("Origin"))
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	requireAuth := middleware.JWTAuthMiddleware(h.Issuer)
	ginRouter.GET("/socket", requireAuth, h.Socket)

	api := ginRouter.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/refresh", h.Refresh)
		authRoutes.POST("/logout", h.Logout)
		authRoutes.POST("/forgot-password", h.ForgotPassword)
		authRoutes.POST("/verify-otp", h.VerifyOTP)
		authRoutes.POST("/reset-password", h.ResetPassword)
		authRoutes.PUT("/update-profile", requireAuth, h.UpdateProfile)
	}

	protected := api.Group("")
	protected.Use(requireAuth)
	{
		protected.GET("/projects/get-projects", h.GetProjects)
		protected.POST("/projects/create-project", h.CreateProject)
		protected.PATCH("/projects/update-project/:id", h.UpdateProject)
		protected.DELETE("/projects/delete-project/:id", h.DeleteProject)
		protected.GET("/projects/get-dashboard-stats", h.DashboardStats)
		protected.GET("/projects/:id/project-details", h.ProjectDetails)
		protected.DELETE("/projects/:id/remove-member/:memberId", h.RemoveMember)
		protected.GET("/projects/:id/invite/search", h.SearchInvitees)

		protected.GET("/tasks/task-by-project/:projectId", h.TasksByProject)
		protected.POST("/tasks/create-task", h.CreateTask)
		protected.PUT("/tasks/update-task/:id", h.UpdateTask)
		protected.DELETE("/tasks/delete-task/:id", h.DeleteTask)
		protected.PATCH("/tasks/:id/move", h.MoveTask)
		protected.POST("/tasks/:id/add-comment", h.AddComment)
		protected.PUT("/tasks/:id/edit-comment/:commentId", h.EditComment)
		protected.DELETE("/tasks/:id/delete-comment/:commentId", h.DeleteComment)

		protected.GET("/activities/get-project-activity/:projectId", h.ProjectActivity)

		protected.POST("/invitations/send-invitation", h.SendInvitation)
		protected.GET("/invitations/my-invitations", h.MyInvitations)
		protected.PATCH("/invitations/:id/approve", h.ApproveInvitation)
		protected.PATCH("/invitations/:id/reject", h.RejectInvitation)
	}

	return ginRouter
}
