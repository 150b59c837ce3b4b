package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /book/receipt/:id
func (h Handler) BookingReceipt(c *gin.Context) {
	pdf, filename, err := h.docs(c).GenerateReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// GET /book/export/:ownerId
func (h Handler) ExportOwnerBookings(c *gin.Context) {
	data, filename, err := h.reports(c).ExportOwner(c.Request.Context(), c.Param("ownerId"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// GET /book/summary/:ownerId
func (h Handler) OwnerSummary(c *gin.Context) {
	sum, err := h.reports(c).Summary(c.Request.Context(), c.Param("ownerId"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
