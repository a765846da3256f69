package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/carelink/backend/go-services/internal/auth"
	"github.com/carelink/carelink/backend/go-services/pkg/middleware"
)

// LoginRequest accepts both employeeId and employee_id.
type LoginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	EmployeeID    string `json:"employeeId"`
	EmployeeIDAlt string `json:"employee_id"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	svc      *auth.Service
	verifier middleware.TokenVerifier
}

func NewAuthHandler(svc *auth.Service, verifier middleware.TokenVerifier) *AuthHandler {
	return &AuthHandler{svc: svc, verifier: verifier}
}

// Register routes under /auth. limit, when non-nil, guards the login route.
func (h *AuthHandler) Register(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	a := rg.Group("/auth")
	if limit != nil {
		a.POST("/login", limit, h.Login)
	} else {
		a.POST("/login", h.Login)
	}
	a.GET("/me", middleware.AuthMiddleware(h.verifier), h.Me)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	emp := req.EmployeeID
	if emp == "" {
		emp = req.EmployeeIDAlt
	}
	res, err := h.svc.Login(c.Request.Context(), auth.LoginRequest{
		Username:   req.Username,
		Password:   req.Password,
		EmployeeID: emp,
	})
	if err != nil {
		respondError(c, err, "Invalid credentials")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me returns the caller's token claims.
func (h *AuthHandler) Me(c *gin.Context) {
	cl, _ := middleware.ClaimsFrom(c)
	var exp int64
	if cl.ExpiresAt != nil {
		exp = cl.ExpiresAt.Unix()
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          cl.Subject,
		"employee_id": cl.EmployeeID,
		"role":        cl.Role,
		"expires_at":  exp,
	})
}
