package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/carelink/carelink/backend/go-services/internal/care"
	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/pkg/middleware"
)

// CareHandler serves patients, beds and notifications.
type CareHandler struct {
	patients      *care.PatientService
	beds          *care.BedService
	notifications *care.NotificationService
}

func NewCareHandler(p *care.PatientService, b *care.BedService, n *care.NotificationService) *CareHandler {
	return &CareHandler{patients: p, beds: b, notifications: n}
}

// Register mounts the resources on an authenticated group.
func (h *CareHandler) Register(rg *gin.RouterGroup) {
	p := rg.Group("/patients")
	p.GET("", h.ListPatients)
	p.POST("", h.CreatePatient)
	p.GET("/:id", h.GetPatient)
	p.PUT("/:id", h.UpdatePatient)
	p.DELETE("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleSupervisor, models.RoleWorker), h.DeletePatient)

	b := rg.Group("/beds")
	b.GET("", h.ListBeds)
	b.POST("", middleware.RequireRole(models.RoleAdmin, models.RoleHospital), h.CreateBed)
	b.PUT("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleHospital), h.UpdateBed)

	n := rg.Group("/notifications")
	n.GET("", h.ListNotifications)
	n.POST("", h.CreateNotification)
	n.PUT("/:id/read", h.MarkNotificationRead)
	n.GET("/role/:role", h.NotificationsForRole)
}

func page(c *gin.Context) (care.Page, bool) {
	var p care.Page
	for _, q := range []struct {
		name string
		dst  *int
	}{{"limit", &p.Limit}, {"offset", &p.Offset}} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": q.name + " must be a non-negative integer"})
			return p, false
		}
		*q.dst = n
	}
	return p, true
}

func (h *CareHandler) ListPatients(c *gin.Context) {
	pg, ok := page(c)
	if !ok {
		return
	}
	list, err := h.patients.List(c.Request.Context(), care.PatientFilter{
		RegisteredBy: c.Query("registeredBy"),
		Type:         c.Query("type"),
		Page:         pg,
	})
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CareHandler) CreatePatient(c *gin.Context) {
	var in care.PatientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badJSON(c, err)
		return
	}
	p, err := h.patients.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *CareHandler) GetPatient(c *gin.Context) {
	p, err := h.patients.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Patient not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *CareHandler) UpdatePatient(c *gin.Context) {
	var in care.PatientUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badJSON(c, err)
		return
	}
	p, err := h.patients.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err, "Patient not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *CareHandler) DeletePatient(c *gin.Context) {
	if err := h.patients.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Patient not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted successfully"})
}

func (h *CareHandler) ListBeds(c *gin.Context) {
	pg, ok := page(c)
	if !ok {
		return
	}
	list, err := h.beds.List(c.Request.Context(), care.BedFilter{
		HospitalID: c.Query("hospitalId"),
		Status:     c.Query("status"),
		Page:       pg,
	})
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CareHandler) CreateBed(c *gin.Context) {
	var in care.BedInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badJSON(c, err)
		return
	}
	b, err := h.beds.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *CareHandler) UpdateBed(c *gin.Context) {
	var in care.BedUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badJSON(c, err)
		return
	}
	b, err := h.beds.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err, "Bed not found")
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *CareHandler) ListNotifications(c *gin.Context) {
	f := care.NotificationFilter{UserID: c.Query("userId"), UserRole: c.Query("userRole")}
	if raw, ok := c.GetQuery("isRead"); ok {
		v := raw == "true"
		f.IsRead = &v
	}
	list, err := h.notifications.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *CareHandler) CreateNotification(c *gin.Context) {
	var in care.NotificationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badJSON(c, err)
		return
	}
	n, err := h.notifications.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *CareHandler) MarkNotificationRead(c *gin.Context) {
	n, err := h.notifications.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Notification not found")
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *CareHandler) NotificationsForRole(c *gin.Context) {
	list, err := h.notifications.ForRole(c.Request.Context(), c.Param("role"))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}
