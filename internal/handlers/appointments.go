package handlers

import (
	"net/http"

	"citas/internal/models"
	"citas/internal/services"

	"github.com/gin-gonic/gin"
)

// ListAppointments returns one appointment (or null) for ?id=, the owner's
// appointments for ?ownerId=, or everything. With both, the id must belong to
// that owner. Failures read as empty.
func (h *Handler) ListAppointments(c *gin.Context) {
	ownerID := c.Query("ownerId")
	if raw, ok := c.GetQuery("id"); ok && raw != "" {
		id, err := models.ParseID(raw)
		if err != nil || id == 0 {
			c.JSON(http.StatusOK, nil)
			return
		}
		found := h.appointments.List(c.Request.Context(), services.ListQuery{ID: id, OwnerID: ownerID})
		if len(found) == 0 {
			c.JSON(http.StatusOK, nil)
			return
		}
		c.JSON(http.StatusOK, found[0])
		return
	}

	c.JSON(http.StatusOK, h.appointments.List(c.Request.Context(), services.ListQuery{
		OwnerID: ownerID,
	}))
}

// CreateAppointment handles POST /appointments
func (h *Handler) CreateAppointment(c *gin.Context) {
	var req models.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	a, err := h.appointments.Create(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": a})
}

// UpdateAppointment handles PATCH /appointments?id=
func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := h.queryID(c)
	if !ok {
		return
	}

	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	out, err := h.appointments.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": out})
}

// CancelAppointment handles DELETE /appointments?id=. The record is kept and
// marked Cancelled.
func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := h.queryID(c)
	if !ok {
		return
	}

	out, err := h.appointments.Cancel(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": out})
}

func (h *Handler) queryID(c *gin.Context) (uint, bool) {
	id, err := models.ParseID(c.Query("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return 0, false
	}
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing id"})
		return 0, false
	}
	return id, true
}
