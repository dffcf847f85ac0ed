package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	v1 "teamchat/cmd/api/router/v1"
	busadapter "teamchat/internal/infrastructure/bus/adapter"
	cacheadapter "teamchat/internal/infrastructure/cache/adapter"
	"teamchat/internal/infrastructure/config"
	"teamchat/internal/infrastructure/database"
	queueadapter "teamchat/internal/infrastructure/queue/adapter"
	"teamchat/internal/infrastructure/realtime"
	authadapter "teamchat/internal/pkg/auth/adapter"
	"teamchat/internal/pkg/chat/application/task"
	repoadapter "teamchat/internal/pkg/chat/persistence/repository/adapter"
	httpHandler "teamchat/internal/pkg/chat/presentation/http"
	"teamchat/internal/pkg/presence"
	useradapter "teamchat/internal/repository/adapter"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the database on startup
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	cache, err := cacheadapter.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect cache: %v", err)
	}
	defer cache.Close()

	bus, err := busadapter.NewRedisBus(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect bus: %v", err)
	}
	defer bus.Close()

	queueClient, err := queueadapter.NewAsynqClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to create queue client: %v", err)
	}
	defer queueClient.Close()

	queueServer, err := queueadapter.NewAsynqServer(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to create queue server: %v", err)
	}
	task.RegisterNotifyOfflineTask(queueServer, bus)
	go func() {
		if err := queueServer.Run(ctx); err != nil {
			log.Printf("queue server stopped: %v", err)
		}
	}()

	router := realtime.NewRouter()
	defer router.Close()

	// Every instance consumes the shared event channel and fans envelopes out
	// to its local sockets.
	unsubscribe, err := httpHandler.SubscribeBus(ctx, bus, router)
	if err != nil {
		log.Fatalf("failed to subscribe to event channel: %v", err)
	}
	defer unsubscribe()

	chatRepo := repoadapter.NewCachedChatRepository(repoadapter.NewPgChatRepository(pool), cache)
	presenceManager := presence.NewManager(repoadapter.NewPgPresenceRepository(pool), bus)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	v1.RegisterRoutes(r, httpHandler.Deps{
		Repo:      chatRepo,
		Users:     useradapter.NewPgUserRepository(pool),
		Bus:       bus,
		Queue:     queueClient,
		Router:    router,
		Presence:  presenceManager,
		Validator: authadapter.NewPgSessionValidator(pool),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("listening on :%s", cfg.Port)

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := queueServer.Stop(shutdownCtx); err != nil {
		log.Printf("queue shutdown: %v", err)
	}
}
