package handlers

import (
	"database/sql"

	"rentalhub/internal/http/middleware"
	"rentalhub/internal/services"

	"github.com/gin-gonic/gin"
)

// Handler holds service templates. Each request works on a copy stamped
// with its request id.
type Handler struct {
	Bookings services.BookingService
	Payments services.PaymentService
	Quotes   services.QuoteService
	Docs     services.DocsService
	Reports  services.ReportsService
	Auth     services.AuthService
	DB       *sql.DB
}

func (h Handler) bookings(c *gin.Context) services.BookingService {
	s := h.Bookings
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h Handler) payments(c *gin.Context) services.PaymentService {
	s := h.Payments
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h Handler) quotes(c *gin.Context) services.QuoteService {
	s := h.Quotes
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h Handler) docs(c *gin.Context) services.DocsService {
	s := h.Docs
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h Handler) reports(c *gin.Context) services.ReportsService {
	s := h.Reports
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h Handler) auth(c *gin.Context) services.AuthService {
	s := h.Auth
	s.RequestID = middleware.GetRequestID(c)
	return s
}
