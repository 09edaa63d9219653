package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"knightgaming.gg/backend/internal/agent"
	"knightgaming.gg/backend/internal/agent/agents"
	"knightgaming.gg/backend/internal/config"
	"knightgaming.gg/backend/internal/middleware"
	"knightgaming.gg/backend/internal/steam"
	"knightgaming.gg/backend/pkg/storage"

	adminHttp "knightgaming.gg/backend/internal/modules/admin/delivery/http"
	adminService "knightgaming.gg/backend/internal/modules/admin/service"

	aiHttp "knightgaming.gg/backend/internal/modules/ai/delivery/http"
	aiRepo "knightgaming.gg/backend/internal/modules/ai/repository"
	aiService "knightgaming.gg/backend/internal/modules/ai/service"

	gameHttp "knightgaming.gg/backend/internal/modules/game/delivery/http"
	gameRepo "knightgaming.gg/backend/internal/modules/game/repository"
	gameService "knightgaming.gg/backend/internal/modules/game/service"

	leaderboardHttp "knightgaming.gg/backend/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "knightgaming.gg/backend/internal/modules/leaderboard/repository"
	leaderboardService "knightgaming.gg/backend/internal/modules/leaderboard/service"

	newsHttp "knightgaming.gg/backend/internal/modules/news/delivery/http"
	newsRepo "knightgaming.gg/backend/internal/modules/news/repository"
	newsService "knightgaming.gg/backend/internal/modules/news/service"

	notiHttp "knightgaming.gg/backend/internal/modules/notification/delivery/http"
	notifRepo "knightgaming.gg/backend/internal/modules/notification/repository"
	notifService "knightgaming.gg/backend/internal/modules/notification/service"

	reviewHttp "knightgaming.gg/backend/internal/modules/review/delivery/http"
	reviewRepo "knightgaming.gg/backend/internal/modules/review/repository"
	reviewService "knightgaming.gg/backend/internal/modules/review/service"

	searchHttp "knightgaming.gg/backend/internal/modules/search/delivery/http"
	searchService "knightgaming.gg/backend/internal/modules/search/service"

	subHttp "knightgaming.gg/backend/internal/modules/subscription/delivery/http"
	subRepo "knightgaming.gg/backend/internal/modules/subscription/repository"
	subService "knightgaming.gg/backend/internal/modules/subscription/service"

	userHttp "knightgaming.gg/backend/internal/modules/user/delivery/http"
	userRepo "knightgaming.gg/backend/internal/modules/user/repository"
	userService "knightgaming.gg/backend/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *agent.Scheduler
}

func NewServer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Server {
	users := userRepo.NewUserRepository(db)

	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := searchService.NewSearchService(meiliClient)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	authSvc := userService.NewAuthService(users, imageStorage)
	authHandler := userHttp.NewAuthHandler(authSvc)

	notifications := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notifications, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient)

	games := gameRepo.NewGameRepository(db)
	gameSvc := gameService.NewGameService(games, searchSvc)
	gameHandler := gameHttp.NewGameHandler(gameSvc)

	entries := leaderboardRepo.NewLeaderboardRepository(db)
	leaderboardSvc := leaderboardService.NewLeaderboardService(entries, games, users, notificationSvc)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	reviews := reviewRepo.NewReviewRepository(db)
	reviewSvc := reviewService.NewReviewService(reviews, games, users, notificationSvc)
	reviewHandler := reviewHttp.NewReviewHandler(reviewSvc)

	articles := newsRepo.NewNewsRepository(db)
	newsSvc := newsService.NewNewsService(articles, searchSvc, redisClient)
	newsHandler := newsHttp.NewNewsHandler(newsSvc, users)
	if redisClient != nil {
		go newsSvc.StartViewSyncWorker(context.Background())
	}

	// The AI surface only comes up when a Gemini key is configured. Everything
	// else runs fine without it.
	var aiHandler *aiHttp.AIHandler
	aiCache := aiRepo.NewAICacheRepository(db)
	llm, err := agent.NewLLMClient(context.Background())
	if err != nil {
		log.Printf("AI features disabled: %v", err)
	} else {
		aiSvc := aiService.NewAIService(aiCache, articles, games, llm)
		aiHandler = aiHttp.NewAIHandler(aiSvc)
	}

	webhookEvents := subRepo.NewWebhookEventRepository(db)
	subscriptionSvc := subService.NewSubscriptionService(webhookEvents, users)
	subscriptionHandler := subHttp.NewSubscriptionHandler(subscriptionSvc, users)

	adminSvc := adminService.NewAdminService(users, games, articles, reviews, entries)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	steamClient := steam.NewClient()

	scheduler := agent.NewScheduler()
	scheduler.RegisterAgent(agents.NewPlayerCountAgent(games, steamClient))
	scheduler.RegisterAgent(agents.NewGameSyncAgent(games, steamClient, searchSvc))
	scheduler.RegisterAgent(agents.NewCleanupAgent(aiCache, games))
	if redisClient != nil {
		scheduler.RegisterAgent(agents.NewNewsAgent(newsSvc, redisClient))
	}
	scheduler.Start()

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(users)
	rateLimiter := middleware.NewRateLimiter(redisClient, users)

	api := router.Group("/api")
	api.Use(rateLimiter.Global(cfg.RateLimitGlobal))

	// Public routes
	auth := api.Group("/auth")
	auth.Use(rateLimiter.Auth(cfg.RateLimitAuth))
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	api.GET("/games", gameHandler.ListGames)
	api.GET("/games/facets", gameHandler.GetFacets)
	api.GET("/games/:game_id", gameHandler.GetGame)
	api.GET("/games/:game_id/stats", gameHandler.GetStats)
	api.GET("/games/:game_id/players", gameHandler.GetPlayerHistory)
	api.GET("/games/:game_id/reviews", reviewHandler.GetGameReviews)
	api.GET("/games/:game_id/leaderboard", leaderboardHandler.GetLeaderboard)
	api.GET("/games/:game_id/leaderboard/categories", leaderboardHandler.GetCategories)

	api.GET("/news", newsHandler.ListArticles)
	api.GET("/news/headlines", newsHandler.GetHeadlines)
	api.GET("/news/trending", newsHandler.GetTrending)
	api.GET("/news/:id", authMiddleware.OptionalAuth(), newsHandler.GetArticle)
	api.POST("/news/:id/share", newsHandler.ShareArticle)

	api.GET("/search", searchHandler.Search)
	api.GET("/plans", subscriptionHandler.ListPlans)
	api.POST("/webhooks/stripe", subscriptionHandler.HandleWebhook)

	// Protected routes
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)
		protected.PUT("/auth/password", authHandler.ChangePassword)
		protected.POST("/auth/avatar", authHandler.UploadAvatar)

		protected.POST("/leaderboard/entries", leaderboardHandler.SubmitEntry)
		protected.GET("/leaderboard/entries/me", leaderboardHandler.GetMyEntries)
		protected.DELETE("/leaderboard/entries/:id", leaderboardHandler.DeleteEntry)
		protected.GET("/games/:game_id/leaderboard/rank", leaderboardHandler.GetMyRank)

		protected.POST("/reviews", reviewHandler.CreateReview)
		protected.GET("/reviews/me", reviewHandler.GetMyReviews)
		protected.PUT("/reviews/:id", reviewHandler.UpdateReview)
		protected.DELETE("/reviews/:id", reviewHandler.DeleteReview)
		protected.POST("/reviews/:id/vote", reviewHandler.VoteHelpful)
		protected.POST("/reviews/:id/report", reviewHandler.ReportReview)

		protected.POST("/news/:id/like", newsHandler.LikeArticle)

		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		protected.POST("/subscription/checkout", subscriptionHandler.CreateCheckout)
		protected.POST("/subscription/portal", subscriptionHandler.CreatePortal)
		protected.GET("/subscription/status", subscriptionHandler.GetStatus)
		protected.POST("/subscription/cancel", subscriptionHandler.Cancel)

		if aiHandler != nil {
			ai := protected.Group("/ai")
			ai.Use(rateLimiter.AIQuota(cfg.AIQuotaFree, cfg.AIQuotaPremiumX))
			{
				ai.POST("/summarize", aiHandler.SummarizeText)
				ai.POST("/articles/:id/summary", aiHandler.SummarizeArticle)
				ai.POST("/articles/:id/social-posts", aiHandler.SocialPosts)
				ai.GET("/games/:id/trend", aiHandler.TrendHighlight)
			}
		}

		// Moderation routes
		moderation := protected.Group("/moderation")
		moderation.Use(authMiddleware.RequireModerator())
		{
			moderation.GET("/reviews", reviewHandler.ListModerationQueue)
			moderation.PUT("/reviews/:id/approve", reviewHandler.ApproveReview)
			moderation.PUT("/reviews/:id/reject", reviewHandler.RejectReview)
			moderation.GET("/entries", leaderboardHandler.ListFlagged)
			moderation.PUT("/entries/:id/verify", leaderboardHandler.VerifyEntry)
			moderation.PUT("/entries/:id/reject", leaderboardHandler.RejectEntry)
		}

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/dashboard", adminHandler.Dashboard)
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.PUT("/users/:id/role", adminHandler.UpdateUserRole)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)

			adminGroup.GET("/agents", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"agents": scheduler.GetRegisteredAgents()})
			})
			adminGroup.POST("/agents/:name/run", func(c *gin.Context) {
				if err := scheduler.RunAgentByName(c.Request.Context(), c.Param("name")); err != nil {
					c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "NOT_FOUND"})
					return
				}
				c.JSON(http.StatusAccepted, gin.H{"message": "Agent started"})
			})
		}

		staff := protected.Group("")
		staff.Use(authMiddleware.RequireAdmin())
		{
			staff.POST("/games", gameHandler.CreateGame)
			staff.PUT("/games/:game_id", gameHandler.UpdateGame)
			staff.DELETE("/games/:game_id", gameHandler.DeleteGame)

			staff.POST("/news", newsHandler.CreateArticle)
			staff.PUT("/news/:id", newsHandler.UpdateArticle)
			staff.DELETE("/news/:id", newsHandler.DeleteArticle)
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) Stop() {
	s.scheduler.Stop()
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
