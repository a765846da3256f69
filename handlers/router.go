package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carelink/carelink/backend/go-services/internal/auth"
	"github.com/carelink/carelink/backend/go-services/internal/care"
	"github.com/carelink/carelink/backend/go-services/internal/users"
	"github.com/carelink/carelink/backend/go-services/pkg/middleware"
)

// Deps are the services the router mounts.
type Deps struct {
	Auth          *auth.Service
	Users         *users.Service
	Patients      *care.PatientService
	Beds          *care.BedService
	Notifications *care.NotificationService
	Verifier      middleware.TokenVerifier

	// LoginLimit guards POST /auth/login when set.
	LoginLimit gin.HandlerFunc
	// Status reports backend state for /ready.
	Status func(ctx context.Context) map[string]string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Middleware runs before every route.
	Middleware []gin.HandlerFunc
}

var startTime = time.Now()

func cors(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
	c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusOK)
		return
	}
	c.Next()
}

// NewRouter builds the gin engine with every route.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(cors)
	r.Use(d.Middleware...)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]string{}
		if d.Status != nil {
			deps = d.Status(c.Request.Context())
		}
		// The record store always answers, so the service is ready even without
		// a primary.
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}
	RegisterSwagger(r)

	NewAuthHandler(d.Auth, d.Verifier).Register(r.Group("/"), d.LoginLimit)

	api := r.Group("/api", middleware.AuthMiddleware(d.Verifier))
	NewUserHandler(d.Users).Register(api)
	NewCareHandler(d.Patients, d.Beds, d.Notifications).Register(api)
	return r
}
