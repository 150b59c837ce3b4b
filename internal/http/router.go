package api

import (
	stdhttp "net/http"

	intconfig "rentalhub/internal/config"
	"rentalhub/internal/domain"
	h "rentalhub/internal/http/handlers"
	"rentalhub/internal/http/middleware"
	"rentalhub/internal/utils"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env, hd h.Handler) *gin.Engine {
	h.RegisterValidators()

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.LogError("", "http", "trusted_proxies", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/health", h.Health)
	r.GET("/db-check", hd.DBCheck)
	r.GET("/routes", h.Routes)

	r.POST("/auth/login", hd.Login)
	r.POST("/pricing/quote", hd.Quote)
	r.POST("/delivery/estimate", hd.DeliveryEstimate)

	authed := r.Group("/", middleware.RequireAuth([]byte(env.JWTSecret)))
	ownerOnly := middleware.RequireRoles(domain.RoleOwner, domain.RoleAdmin)

	// Bookings
	authed.POST("/book-item", hd.CreateBooking)
	authed.GET("/book/:id", hd.GetBooking)
	authed.PUT("/book/:id", hd.UpdateBooking)
	authed.DELETE("/book/:id", hd.DeleteBooking)
	authed.PUT("/book/read/:id", hd.MarkBookingRead)
	authed.GET("/book/receipt/:id", hd.BookingReceipt)

	// Transitions
	authed.PUT("/book/submit/:id", hd.SubmitBooking())
	authed.PUT("/book/cancel/:id", hd.CancelBooking())
	authed.PUT("/book/request/:id", ownerOnly, hd.AcceptRequest())
	authed.PUT("/book/approve/:id", ownerOnly, hd.ApproveBooking())
	authed.PUT("/book/reject/:id", ownerOnly, hd.RejectRequest())
	authed.PUT("/book/start/:id", ownerOnly, hd.StartRental())
	authed.PUT("/book/terminate/:id", ownerOnly, hd.TerminateRental())
	authed.PUT("/book/reject-booking/:id", ownerOnly, hd.RejectBooking())
	authed.PUT("/book/payment/:id", hd.ConfirmPayment)
	authed.PUT("/return/item-returned", ownerOnly, hd.ItemReturned)

	// Listings
	authed.GET("/book/notification/:customerId", hd.CustomerNotifications)
	authed.GET("/book/booked-items/:customerId", hd.BookedItems)
	authed.GET("/book/cart/:customerId", hd.Cart)
	authed.GET("/book/request/:ownerId", hd.OwnerRequests)
	authed.GET("/book/export/:ownerId", ownerOnly, hd.ExportOwnerBookings)
	authed.GET("/book/summary/:ownerId", ownerOnly, hd.OwnerSummary)
	authed.GET("/history/customer/:customerId", hd.CustomerHistory)
	authed.GET("/history/owner/:ownerId", hd.OwnerHistory)

	// Payments
	authed.POST("/payment/gcash", hd.CreateCheckout)
	authed.POST("/payment/qrph", hd.CreateQR)
	authed.GET("/payment/status/:intentId", hd.PaymentStatus)
	authed.GET("/payment/reconcile/:intentId", ownerOnly, hd.ReconcilePayment)

	h.SetRouter(r)
	return r
}
