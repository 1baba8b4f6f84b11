package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"malinoise/internal/authz"
	"malinoise/internal/handlers"
	"malinoise/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtKey []byte,
	authHandler *handlers.AuthHandler,
	registerHandler *handlers.RegisterHandler,
	passwordHandler *handlers.PasswordHandler,
	adminHandler *handlers.AdminHandler,
) *gin.Engine {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ---- public
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", registerHandler.Register)
		auth.POST("/verify-code", registerHandler.VerifyCode)
		auth.POST("/resend-code", registerHandler.ResendCode)
		auth.POST("/login", authHandler.Login)
		auth.POST("/forgot-password", passwordHandler.ForgotPassword)
		auth.POST("/reset-password", passwordHandler.ResetPassword)
	}

	// ---- protected (JWT + роль CEO)
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(jwtKey))
	admin.Use(middleware.RequireRoles(authz.RoleCEO))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/users/report", adminHandler.UsersReport)
	}

	return r
}
