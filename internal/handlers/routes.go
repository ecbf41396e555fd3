package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with every public route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), Metrics())
	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	admin := h.Auth.RequireAuth(RoleAdmin)
	agent := h.Auth.RequireAuth(RoleAgent)
	anyone := h.Auth.RequireAuth(RoleAdmin, RoleAgent)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Welcome To Puja Booking service"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/auth/admin/login", h.Auth.AdminLogin)

	agents := r.Group("/agent")
	{
		agents.POST("/login", h.Auth.AgentLogin)

		agents.POST("/create-agent", admin, h.CreateAgent)
		agents.GET("/get-agents", admin, h.GetAgents)
		agents.GET("/get-agent/:id", admin, h.GetAgent)
		agents.PUT("/update-agent/:id", admin, h.UpdateAgent)
		agents.PUT("/verify-agent/:id", admin, h.VerifyAgent)
		agents.PUT("/update-availability/:id", admin, h.UpdateAvailability)
		agents.DELETE("/delete-agent/:id", admin, h.DeleteAgent)
		agents.PUT("/restore-agent/:id", admin, h.RestoreAgent)
		agents.GET("/reconcile/:id", admin, h.Reconcile)
		agents.POST("/assign-task", admin, h.AssignTask)
		agents.DELETE("/remove-task/:booking_id", admin, h.RemoveTask)

		agents.GET("/profile", agent, h.Profile)
		agents.GET("/tasks", agent, h.AgentTasks)
		agents.GET("/wallet", agent, h.AgentWallet)
		agents.GET("/commissions", agent, h.AgentCommissions)
		agents.POST("/upload-kyc", agent, h.UploadKYC)
		agents.PUT("/update-task-status/:booking_id", anyone, h.UpdateTaskStatus)
	}

	withdrawals := r.Group("/withdrawals")
	{
		withdrawals.POST("", agent, h.RequestWithdrawal)
		withdrawals.GET("", admin, h.ListWithdrawals)
		withdrawals.GET("/:id", anyone, h.AgentWithdrawals)
		withdrawals.PUT("/:id/approve", admin, h.ApproveWithdrawal)
		withdrawals.PUT("/:id/reject", admin, h.RejectWithdrawal)
	}

	bookings := r.Group("/booking")
	{
		bookings.POST("/create", h.CreateBooking)
		bookings.GET("", admin, h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/verify-payment/:order_id", h.VerifyPayment)
	}

	r.POST("/payment/webhook", h.PaymentWebhook)

	r.GET("/panchangam", h.GetPanchangam)
	r.POST("/panchangam/sync", admin, h.SyncPanchangam)
}
