package app

import (
	"fmt"
	"log"
	"time"

	"malinoise/internal/config"
	"malinoise/internal/database"
	"malinoise/internal/handlers"
	"malinoise/internal/pdf"
	"malinoise/internal/repositories"
	"malinoise/internal/routes"
	"malinoise/internal/services"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "malinoise/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === Repos ===
	var userRepo repositories.UserRepository
	var verifRepo repositories.VerificationRepository

	if cfg.Database.Driver == "memory" {
		// хранилище живёт столько же, сколько процесс; для serverless-целей
		// использовать postgres/sqlite
		log.Printf("[app] using in-memory storage")
		userRepo = repositories.NewMemoryUserRepository()
		verifRepo = repositories.NewMemoryVerificationRepository()
	} else {
		db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			log.Fatal("database connection failed: ", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Printf("database close: %v", err)
			}
		}()
		if err := db.EnsureSchema(); err != nil {
			log.Fatal("database schema failed: ", err)
		}
		log.Printf("[app] connected to %s", cfg.Database.Driver)
		userRepo = repositories.NewUserRepository(db)
		verifRepo = repositories.NewVerificationRepository(db)
	}

	// === Services ===
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.DryRun,
	)
	verificationService := services.NewVerificationService(verifRepo, nil)
	accountService := services.NewAccountService(
		userRepo,
		verificationService,
		emailService,
		authService,
		cfg.Verification.RegistrationTTL(),
		cfg.Verification.RecoveryTTL(),
		nil,
	)
	adminService := services.NewAdminService(userRepo, verifRepo, pdf.NewReportGenerator(), nil)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(accountService)
	registerHandler := handlers.NewRegisterHandler(accountService)
	passwordHandler := handlers.NewPasswordHandler(accountService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// === Фоновая уборка протухших кодов ===
	go sweepLoop(verificationService, cfg.Verification.SweepInterval())

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		[]byte(cfg.Auth.JWTSecret),
		authHandler,
		registerHandler,
		passwordHandler,
		adminHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("[app] listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server failed: ", err)
	}
}

// sweepLoop — ленивой уборки в issue/consume достаточно для корректности,
// периодический проход не даёт протухшим записям копиться без ограничения.
func sweepLoop(verifications services.VerificationService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		n, err := verifications.SweepExpired()
		if err != nil {
			log.Printf("[app][sweep] failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("[app][sweep] removed %d expired verification(s)", n)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
