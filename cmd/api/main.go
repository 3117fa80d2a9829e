package main

import (
	"context"
	"errors"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"net/http"
	"nutricare/cmd/internal/config"
	"nutricare/cmd/internal/domain/database"
	"nutricare/cmd/internal/domain/database/repository"
	"nutricare/cmd/internal/events"
	cognitoclient "nutricare/cmd/internal/integration/aws/cognito"
	"nutricare/cmd/internal/integration/identity"
	"nutricare/cmd/internal/integration/kafka"
	"nutricare/cmd/internal/relay"
	"nutricare/cmd/internal/routes"
	"nutricare/cmd/internal/service"
	"nutricare/cmd/internal/utils/validators"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}

	validate := validators.New()

	db, err := database.Init(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to initialize database: ", err)
	}
	store := repository.NewStore(db)

	// Live relay registry, empty on every boot
	hub := relay.NewHub()
	defer hub.Close()

	var presence relay.Presence = relay.NewMemoryPresence()
	if cfg.RedisEnabled() {
		rdb, err := relay.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("failed to connect to redis: ", err)
		}
		defer rdb.Close()
		presence = relay.NewRedisPresence(rdb)
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.KafkaEnabled() {
		producer, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatal("failed to initialize kafka producer: ", err)
		}
		defer producer.Close()
		publisher = producer
	}

	var resolver identity.Resolver
	if cfg.CognitoEnabled {
		cogClient, err := cognitoclient.InitCognitoClient(ctx, cfg.CognitoRegion)
		if err != nil {
			log.Fatal("failed to initialize cognito client: ", err)
		}
		resolver = cogClient
	} else {
		resolver = identity.NewJWTResolver(cfg.JWTSecret)
	}

	// Getting services
	userService := service.NewUserService(store)
	appService := service.NewApplicationService(store, validate, publisher)
	apptService := service.NewAppointmentService(store, validate, publisher)
	sessionService := service.NewSessionService(store, publisher)
	permService := service.NewPermissionService(store, validate, publisher)
	auditService := service.NewAuditService(store)
	chatService := service.NewChatService(store, validate, hub)
	noteService := service.NewNoteService(store, validate)
	healthService := service.NewHealthService(store, validate, publisher)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(cfg.CORSOrigins, r.Header.Get(echo.HeaderOrigin))
		},
	}

	// Getting routes
	api := &routes.Routes{
		Applications: routes.NewApplicationDefault(appService),
		Appointments: routes.NewAppointmentDefault(apptService),
		Sessions:     routes.NewSessionDefault(sessionService),
		Chat:         routes.NewChatDefault(chatService, hub, presence, upgrader),
		Notes:        routes.NewNoteDefault(noteService),
		Permissions:  routes.NewPermissionDefault(permService, auditService),
		Health:       routes.NewHealthDefault(healthService),
		Users:        routes.NewUserDefault(userService),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Mount(e.Group("/api"), identity.Middleware(resolver, userService))

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server stopped: ", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	// Websocket handlers only return once their peers are gone.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("failed to shut down http server: %v", err)
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" || slices.Contains(allowed, "*") {
		return true
	}
	return slices.Contains(allowed, origin)
}
