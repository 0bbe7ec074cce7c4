package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"agrohire/internal/api/handlers"
	jwtMiddleware "agrohire/internal/api/middleware"
	"agrohire/internal/api/services"
	"agrohire/internal/api/ws"
	"agrohire/internal/config"
	"agrohire/internal/mpesa"
	"agrohire/internal/notify"
	"agrohire/internal/repository"
)

// SetupRoutes wires every handler into the echo instance. Shared services that
// cross handler boundaries (notifications, the M-Pesa client) are built once
// here and handed down.
func SetupRoutes(e *echo.Echo, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *services.NotificationService {
	e.GET("/health", healthCheck)

	wsHandler := handlers.NewWebSocketHandler(cfg)
	e.GET("/api/ws", wsHandler.HandleConnection)

	e.Validator = NewValidator()

	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	senders := notify.NewRegistry(cfg, ws.GetHub())
	notifications := services.NewNotificationService(notificationRepo, userRepo, senders, cfg.Location())

	mpesaClient := mpesa.NewClient(cfg)

	authHandler := handlers.NewAuthHandler(db, cfg.JWTKey)
	authGroup := e.Group("/api/auth")
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/signin", authHandler.SignIn)

	equipmentHandler := handlers.NewEquipmentHandler(db, rdb)
	e.GET("/api/equipment", equipmentHandler.GetEquipmentList)
	e.GET("/api/equipment/types", equipmentHandler.GetEquipmentTypes)
	e.GET("/api/equipment/:id", equipmentHandler.GetEquipment)
	e.GET("/api/equipment/:id/reviews", equipmentHandler.GetReviews)

	bookingHandler := handlers.NewBookingHandler(db, notifications)
	e.GET("/api/bookings/availability", bookingHandler.CheckAvailability)

	pricingHandler := handlers.NewPricingHandler(db)
	e.GET("/api/pricing/quote", pricingHandler.GetQuote)
	e.GET("/api/pricing/rules/:id", pricingHandler.GetActiveRules)
	e.GET("/api/pricing/history/:id", pricingHandler.GetPricingHistory)

	// Daraja posts results here without authentication.
	paymentHandler := handlers.NewPaymentHandler(db, mpesaClient, notifications)
	e.POST("/api/payments/mpesa/callback", paymentHandler.MpesaCallback)
	e.POST("/api/payments/mpesa/refund-callback/:refund_id", paymentHandler.MpesaRefundCallback)
	e.POST("/api/payments/mpesa/timeout", paymentHandler.MpesaTimeout)

	jwtConfig := echojwt.Config{
		SigningKey: []byte(cfg.JWTKey),
		ContextKey: "user",
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		},
	}

	apiGroup := e.Group("/api")
	apiGroup.Use(echojwt.WithConfig(jwtConfig))
	apiGroup.Use(jwtMiddleware.ExtractUserIDFromJWT())

	userHandler := handlers.NewUserHandler(db, rdb)
	apiGroup.GET("/user/me", userHandler.GetCurrentUser)
	apiGroup.PUT("/user/me", userHandler.UpdateCurrentUser)
	apiGroup.PUT("/user/me/password", userHandler.ChangePassword)
	apiGroup.POST("/users/:id/verify", userHandler.VerifyUser)

	apiGroup.POST("/equipment", equipmentHandler.CreateEquipment)
	apiGroup.POST("/equipment/types", equipmentHandler.CreateEquipmentType)
	apiGroup.PUT("/equipment/:id", equipmentHandler.UpdateEquipment)
	apiGroup.PUT("/equipment/:id/status", equipmentHandler.SetEquipmentStatus)
	apiGroup.DELETE("/equipment/:id", equipmentHandler.DeleteEquipment)
	apiGroup.POST("/equipment/:id/reviews", equipmentHandler.AddReview)

	apiGroup.POST("/bookings", bookingHandler.CreateBooking)
	apiGroup.GET("/bookings", bookingHandler.GetMyBookings)
	apiGroup.GET("/bookings/owner", bookingHandler.GetOwnerBookings)
	apiGroup.GET("/bookings/:id", bookingHandler.GetBooking)
	apiGroup.POST("/bookings/:id/approve", bookingHandler.ApproveBooking)
	apiGroup.POST("/bookings/:id/reject", bookingHandler.RejectBooking)
	apiGroup.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
	apiGroup.POST("/bookings/:id/start", bookingHandler.StartBooking)
	apiGroup.POST("/bookings/:id/complete", bookingHandler.CompleteBooking)

	apiGroup.POST("/pricing/rules", pricingHandler.CreatePricingRule)
	apiGroup.DELETE("/pricing/rules/:id", pricingHandler.DeletePricingRule)
	apiGroup.POST("/pricing/seasonal", pricingHandler.CreateSeasonalPricing)
	apiGroup.POST("/pricing/demand", pricingHandler.CreateDemandPricing)

	apiGroup.POST("/payments", paymentHandler.InitiatePayment)
	apiGroup.GET("/payments", paymentHandler.GetMyPayments)
	apiGroup.GET("/payments/:id", paymentHandler.GetPayment)
	apiGroup.GET("/payments/booking/:id", paymentHandler.GetBookingPayments)
	apiGroup.POST("/payments/:id/verify", paymentHandler.VerifyPayment)
	apiGroup.POST("/payments/:id/refund", paymentHandler.RefundPayment)

	notificationHandler := handlers.NewNotificationHandler(notifications)
	apiGroup.GET("/notifications", notificationHandler.GetNotifications)
	apiGroup.GET("/notifications/unread", notificationHandler.GetUnreadCount)
	apiGroup.POST("/notifications/:id/read", notificationHandler.MarkRead)
	apiGroup.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	apiGroup.GET("/notifications/preferences", notificationHandler.GetPreferences)
	apiGroup.PUT("/notifications/preferences", notificationHandler.UpdatePreferences)

	return notifications
}

func healthCheck(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
