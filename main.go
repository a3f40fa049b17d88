package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"main/config"
	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file loaded: %v", err)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("password", utils.ValidatePasswordRule); err != nil {
			log.Fatalf("Failed to register password validator: %v", err)
		}
	}
}

func setupRouter(deps *appDeps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestSizeLimiter(1 << 20))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/api/health", deps.health.Health)

	// Public routes. Logout lives here because it reads the bearer
	// token itself and must answer 400, not 401, when none is sent.
	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", deps.signup.Signup)
		auth.POST("/login", deps.auth.Login)
		auth.POST("/logout", deps.auth.Logout)
	}

	protected := router.Group("/api")
	protected.Use(middleware.SessionMiddleware(deps.sessions, deps.history, deps.cfg))
	protected.Use(middleware.AuditMiddleware(deps.audit))
	{
		journal := protected.Group("/journal")
		{
			journal.GET("/", deps.roleAuth.RequirePermissions("read_own_data"), deps.journal.List)
			journal.GET("/:id", deps.roleAuth.RequirePermissions("read_own_data"), deps.journal.Get)
			journal.POST("/", deps.roleAuth.RequirePermissions("write_own_data"), deps.journal.Create)
			journal.PUT("/:id", deps.roleAuth.RequirePermissions("write_own_data"), deps.journal.Update)
			journal.DELETE("/:id", deps.roleAuth.RequirePermissions("write_own_data"), deps.journal.Delete)
			journal.POST("/flare-prediction", deps.roleAuth.RequirePermissions("read_own_data"), deps.prediction.Predict)
		}

		protected.GET("/auth/login-history/:user_id",
			deps.roleAuth.RequireSelfOrPermission("read_all_data"),
			deps.loginHistory.List)

		users := protected.Group("/users")
		{
			users.GET("/:user_id", deps.roleAuth.RequireSelfOrPermission("read_all_data"), deps.users.Get)
			users.PUT("/:user_id", deps.roleAuth.RequireSelfOrPermission("manage_users"), deps.users.Update)
		}

		mfa := protected.Group("/user/mfa")
		{
			mfa.POST("/setup", deps.mfa.Setup)
			mfa.POST("/enable", deps.mfa.Enable)
			mfa.POST("/disable", deps.mfa.Disable)
		}

		admin := protected.Group("/admin")
		admin.Use(deps.roleAuth.RequireRoles("admin"))
		{
			admin.POST("/users/:user_id/unlock", deps.admin.Unlock)
			admin.POST("/users/:user_id/roles", deps.admin.GrantRole)
			admin.DELETE("/users/:user_id/roles", deps.admin.RevokeRole)
		}
	}

	return router
}

type appDeps struct {
	cfg      config.AuthConfig
	sessions *repository.SessionRepo
	history  *repository.LoginHistoryRepo
	roleAuth *middleware.RoleAuth
	audit    *services.AuditLogger

	auth         *handler.AuthHandler
	signup       *handler.SignupHandler
	journal      *handler.JournalHandler
	prediction   *handler.PredictionHandler
	loginHistory *handler.LoginHistoryHandler
	users        *handler.UserHandler
	mfa          *handler.MFAHandler
	admin        *handler.AdminHandler
	health       *handler.HealthHandler
}

func main() {
	cfg := config.LoadAuthConfig()

	db, err := config.OpenPostgres(config.LoadDatabaseConfig())
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.Bootstrap(ctx, db); err != nil {
		cancel()
		log.Fatalf("Failed to bootstrap schema: %v", err)
	}
	cancel()

	mongoClient, err := config.ConnectMongo()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("Warning: MongoDB disconnect: %v", err)
		}
	}()

	auditRepo := repository.NewAuditRepo(
		mongoClient,
		utils.GetEnvAsString("MONGO_DB", "medivue"),
		utils.GetEnvAsString("AUDIT_COLLECTION", "audit_logs"),
	)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := auditRepo.SetupIndexes(ctx); err != nil {
			log.Printf("Warning: failed to create audit indexes: %v", err)
		}
		cancel()
	}

	auditLogger := services.NewAuditLogger(auditRepo, 256)
	defer auditLogger.Close()

	// Session caching is an optimization. A missing or unreachable
	// Redis leaves every lookup on PostgreSQL.
	var sessionCache *services.SessionCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		sessionCache, err = services.NewSessionCache(redisURL)
		if err != nil {
			log.Printf("Warning: session cache disabled: %v", err)
			sessionCache = nil
		} else {
			defer sessionCache.Close()
		}
	}

	userRepo := repository.NewUserRepo(db)
	sessionRepo := repository.NewSessionRepo(db, sessionCache)
	historyRepo := repository.NewLoginHistoryRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	journalRepo := repository.NewJournalRepo(db)

	authService := usecase.NewAuthService(userRepo, sessionRepo, historyRepo, cfg)
	permsCache := services.NewPermissionsCache(cfg.PermissionsCacheTTL)
	roleAuth := middleware.NewRoleAuth(roleRepo, permsCache)

	deps := &appDeps{
		cfg:      cfg,
		sessions: sessionRepo,
		history:  historyRepo,
		roleAuth: roleAuth,
		audit:    auditLogger,

		auth:         handler.NewAuthHandler(authService),
		signup:       handler.NewSignupHandler(userRepo, roleRepo, roleAuth),
		journal:      handler.NewJournalHandler(journalRepo),
		prediction:   handler.NewPredictionHandler(utils.GetEnvAsString("FLARE_PREDICTOR_URL", "http://localhost:5000/predict")),
		loginHistory: handler.NewLoginHistoryHandler(historyRepo),
		users:        handler.NewUserHandler(userRepo, sessionRepo),
		mfa:          handler.NewMFAHandler(userRepo),
		admin:        handler.NewAdminHandler(userRepo, roleRepo, sessionRepo, roleAuth),
		health:       handler.NewHealthHandler(db, sessionCache),
	}

	router := setupRouter(deps)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	serverAddr := fmt.Sprintf(":%s", port)
	log.Printf("Server starting on %s", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
