package router

import (
	"fmt"
	"strings"

	"github.com/neonclub/neon-api/internal/cache"
	"github.com/neonclub/neon-api/internal/config"
	adminhandlers "github.com/neonclub/neon-api/internal/http/handlers/admin"
	publichandlers "github.com/neonclub/neon-api/internal/http/handlers/public"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the HTTP engine with all portal and back office routes.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "neon"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}
	enrollRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:enroll", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		// Open endpoints
		apiV1.POST("/auth/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		apiV1.POST("/enroll", RateLimitMiddleware(redisClient, enrollRule, KeyByIP), publicHandler.Enroll)
		apiV1.GET("/packages", publicHandler.ListPackages)

		// Distributor portal
		portal := apiV1.Group("")
		portal.Use(DistributorJWTMiddleware(cfg.JWT.SecretKey, c.DistributorRepo))
		{
			portal.GET("/me", publicHandler.GetMe)
			portal.GET("/me/dashboard", publicHandler.GetDashboard)
			portal.POST("/orders", publicHandler.RecordOrder)
			portal.GET("/orders", publicHandler.ListMyOrders)
			portal.GET("/genealogy", publicHandler.GetMyTree)
			portal.GET("/rank/progress", publicHandler.GetRankProgress)
			portal.GET("/commissions", publicHandler.ListMyCommissions)
			portal.GET("/balance", publicHandler.GetMyBalance)
			portal.POST("/payouts", publicHandler.RequestPayout)
			portal.GET("/payouts", publicHandler.ListMyPayouts)
			portal.POST("/payouts/:id/cancel", publicHandler.CancelPayout)
			portal.GET("/rewards/points", publicHandler.ListMyRewardPoints)
			portal.GET("/rewards/free", publicHandler.ListMyFreeRewards)
		}

		// Back office
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			authorized := admin.Use(AdminJWTMiddleware(cfg.AdminJWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// Distributors and genealogy
				authorized.GET("/distributors", adminHandler.AdminListDistributors)
				authorized.GET("/distributors/:id", adminHandler.AdminGetDistributor)
				authorized.PATCH("/distributors/:id/autoship", adminHandler.AdminSetAutoship)
				authorized.GET("/rank-changes", adminHandler.AdminListRankChanges)
				authorized.GET("/genealogy/audit", adminHandler.AdminAuditTree)
				authorized.GET("/genealogy/:id", adminHandler.AdminGetTree)

				// Catalog
				authorized.GET("/products", adminHandler.AdminListProducts)
				authorized.POST("/products", adminHandler.AdminCreateProduct)
				authorized.PUT("/products/:id", adminHandler.AdminUpdateProduct)
				authorized.GET("/packages", adminHandler.AdminListPackages)
				authorized.POST("/packages", adminHandler.AdminCreatePackage)

				// Compensation
				authorized.GET("/commissions", adminHandler.AdminListCommissions)
				authorized.POST("/period-closes", adminHandler.AdminTriggerPeriodClose)
				authorized.GET("/period-closes", adminHandler.AdminListPeriodCloses)
				authorized.GET("/period-closes/:key", adminHandler.AdminGetPeriodClose)
				authorized.GET("/reports/commissions/:key", adminHandler.AdminExportCommissions)
				authorized.GET("/plan", adminHandler.AdminGetPlan)

				// Payouts
				authorized.GET("/payouts", adminHandler.AdminListPayouts)
				authorized.GET("/payouts/:id", adminHandler.AdminGetPayout)
				authorized.POST("/payouts/:id/approve", adminHandler.AdminApprovePayout)
				authorized.POST("/payouts/:id/dispatch", adminHandler.AdminDispatchPayout)
				authorized.POST("/payouts/:id/complete", adminHandler.AdminCompletePayout)
				authorized.POST("/payouts/:id/fail", adminHandler.AdminFailPayout)
				authorized.POST("/payouts/:id/retry", adminHandler.AdminRetryPayout)

				// Rewards
				authorized.GET("/rewards/points", adminHandler.AdminListRewardPoints)
				authorized.GET("/rewards/free", adminHandler.AdminListFreeRewards)
				authorized.POST("/rewards/free/:id/ship", adminHandler.AdminShipFreeReward)

				// Access control
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	return r
}
