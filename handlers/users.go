package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/users"
	"github.com/carelink/carelink/backend/go-services/pkg/middleware"
)

type createUserRequest struct {
	EmployeeID    string `json:"employeeId"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	ContactNumber string `json:"contactNumber"`
	Email         string `json:"email"`
}

type updateUserRequest struct {
	Name          *string `json:"name"`
	Role          *string `json:"role"`
	ContactNumber *string `json:"contactNumber"`
	Email         *string `json:"email"`
	IsActive      *bool   `json:"isActive"`
	Password      *string `json:"password"`
}

type UserHandler struct {
	svc *users.Service
}

func NewUserHandler(svc *users.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register mounts /users on an authenticated group.
func (h *UserHandler) Register(rg *gin.RouterGroup) {
	u := rg.Group("/users")
	u.GET("", h.List)
	u.GET("/:id", h.Get)
	u.POST("", middleware.RequireRole(models.RoleAdmin), h.Create)
	u.PUT("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleSupervisor), h.Update)
	u.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), h.Delete)
}

func (h *UserHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	out := make([]models.PublicUser, 0, len(list))
	for _, u := range list {
		out = append(out, u.Public())
	}
	c.JSON(http.StatusOK, out)
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, u.Public())
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	createdBy := ""
	if cl, ok := middleware.ClaimsFrom(c); ok {
		createdBy = cl.Subject
	}
	u, err := h.svc.Create(c.Request.Context(), users.CreateInput{
		EmployeeID:    req.EmployeeID,
		Username:      req.Username,
		Password:      req.Password,
		Name:          req.Name,
		Role:          req.Role,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
		CreatedBy:     createdBy,
	})
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": u.Public()})
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	u, err := h.svc.Update(c.Request.Context(), c.Param("id"), users.UpdateInput{
		Name:          req.Name,
		Role:          req.Role,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
		IsActive:      req.IsActive,
		Password:      req.Password,
	})
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": u.Public()})
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated successfully"})
}
