package config

import (
	"PanicButton/database"
	authHandler "PanicButton/internal/api/auth/handler"
	authRepository "PanicButton/internal/api/auth/repository"
	authService "PanicButton/internal/api/auth/service"
	fakecallHandler "PanicButton/internal/api/fakecall/handler"
	fakecallService "PanicButton/internal/api/fakecall/service"
	triageHandler "PanicButton/internal/api/triage/handler"
	triageRepository "PanicButton/internal/api/triage/repository"
	triageService "PanicButton/internal/api/triage/service"
	"PanicButton/internal/middleware"
	"PanicButton/pkg/archive"
	"PanicButton/pkg/audio"
	"PanicButton/pkg/bcrypt"
	"PanicButton/pkg/broker"
	"PanicButton/pkg/gemini"
	"PanicButton/pkg/geo"
	jwtPkg "PanicButton/pkg/jwt"
	"PanicButton/pkg/llm"
	"PanicButton/pkg/openai"
	"PanicButton/pkg/redis"
	"PanicButton/pkg/s3"
	"PanicButton/pkg/smtp"
	"PanicButton/pkg/utils"
	"PanicButton/pkg/whatsapp"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type ServerOption func(*Server) error

type Server struct {
	cfg            *Config
	engine         *fiber.App
	db             *sqlx.DB
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	bcryptUtils    bcrypt.IBcrypt
	jwt            jwtPkg.IJWT
	handlers       []handler
	redisServer    redis.IRedis
	smtpMailer     smtp.ItfSmtp
	whatsappClient whatsapp.IWhatsappSender
	llmProvider    llm.Provider
	geminiClient   gemini.IGemini
	ttsClient      audio.ITTS
	broker         broker.IBroker
	resolver       geo.IResolver
	archives       archive.Store
	retention      *archive.Retention
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	return server, nil
}

func WithConfig(cfg *Config) ServerOption {
	return func(s *Server) error {
		s.cfg = cfg
		return nil
	}
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		dsn := s.cfg.DB.Path
		if s.cfg.DB.Driver == "postgres" {
			dsn = s.cfg.DB.URL
		}

		db, err := database.New(s.cfg.DB.Driver, dsn)
		if err != nil {
			s.log.Errorf("Failed to connect to database: %v", err)
			return fmt.Errorf("failed to create database connection: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := authRepository.New(db, s.log).Migrate(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		s.db = db
		return nil
	}
}

func WithJWT() ServerOption {
	return func(s *Server) error {
		signer, err := jwtPkg.New(s.cfg.JWT.Secret)
		if err != nil {
			return fmt.Errorf("failed to create token signer: %w", err)
		}
		s.jwt = signer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil || s.jwt == nil {
			return fmt.Errorf("logger and token signer must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, s.jwt)
		return nil
	}
}

// WithRedisServer enables the shared incident store. Without REDIS_ADDR
// incidents live in process memory.
func WithRedisServer() ServerOption {
	return func(s *Server) error {
		if s.cfg.Redis.Addr == "" {
			s.log.Warn("REDIS_ADDR not set, incidents are kept in memory")
			return nil
		}
		s.redisServer = redis.New(s.cfg.Redis.Addr, s.cfg.Redis.Password, s.cfg.Redis.DB, s.log)
		return nil
	}
}

func WithLLMProvider() ServerOption {
	return func(s *Server) error {
		c := s.cfg.Classifier
		switch c.Provider {
		case ProviderOpenAI:
			if c.OpenAIAPIKey == "" {
				s.log.Warn("OPENAI_API_KEY not set, classification falls back to template analysis")
				return nil
			}
			s.llmProvider = openai.NewChatGPT(c.OpenAIAPIKey, c.OpenAIModel, c.OpenAIURL)
		default:
			if c.GeminiAPIKey == "" {
				s.log.Warn("GEMINI_API_KEY not set, classification falls back to template analysis")
				return nil
			}
			client, err := gemini.NewGeminiClient(context.Background(), c.GeminiAPIKey, c.GeminiModel)
			if err != nil {
				s.log.Errorf("Failed to create Gemini client: %v", err)
				return fmt.Errorf("failed to create Gemini client: %w", err)
			}
			s.geminiClient = client
			s.llmProvider = client
		}

		s.log.WithField("provider", s.llmProvider.Name()).Info("Classifier provider configured")
		return nil
	}
}

// WithGeocoder prefers Google Maps when a key is present and falls back to
// Nominatim otherwise.
func WithGeocoder() ServerOption {
	return func(s *Server) error {
		var geocoder geo.Geocoder
		if s.cfg.Geo.MapsAPIKey != "" {
			g, err := geo.NewGoogleMaps(s.cfg.Geo.MapsAPIKey)
			if err != nil {
				return fmt.Errorf("failed to create geocoder: %w", err)
			}
			geocoder = g
		} else {
			geocoder = geo.NewNominatim(s.cfg.Geo.NominatimURL, s.cfg.Geo.UserAgent)
		}

		s.resolver = geo.NewResolver(geocoder, s.log)
		return nil
	}
}

// WithArchiveStore writes archives to S3 when a bucket is configured and to
// the local archive directory otherwise. Only the local store is swept.
func WithArchiveStore() ServerOption {
	return func(s *Server) error {
		a := s.cfg.Archive
		if a.S3Bucket != "" {
			client, err := s3.New(s3.Config{
				Region:          a.S3Region,
				AccessKeyID:     a.S3AccessKey,
				SecretAccessKey: a.S3SecretKey,
				BucketName:      a.S3Bucket,
				Endpoint:        a.S3Endpoint,
			})
			if err != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
				return fmt.Errorf("failed to create S3 client: %w", err)
			}
			s.archives = archive.NewS3(client, a.S3Prefix)
			return nil
		}

		local, err := archive.NewLocal(a.Dir)
		if err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
		s.archives = local

		retention, err := archive.NewRetention(local, a.Retention, a.Schedule, s.log)
		if err != nil {
			return fmt.Errorf("failed to schedule archive retention: %w", err)
		}
		s.retention = retention
		return nil
	}
}

func WithSMTPMailer() ServerOption {
	return func(s *Server) error {
		if s.cfg.SMTP.Host == "" {
			return nil
		}
		s.smtpMailer = smtp.New(smtp.Config{
			Host:     s.cfg.SMTP.Host,
			Port:     s.cfg.SMTP.Port,
			Username: s.cfg.SMTP.Username,
			Password: s.cfg.SMTP.Password,
			From:     s.cfg.SMTP.From,
		})
		return nil
	}
}

func WithWhatsappClient() ServerOption {
	return func(s *Server) error {
		if !s.cfg.WhatsApp.Enabled {
			return nil
		}

		client, err := whatsapp.New(context.Background(), whatsapp.Config{
			Dialect: s.cfg.WhatsApp.Dialect,
			DSN:     s.cfg.WhatsApp.DSN,
		}, s.log)
		if err != nil {
			s.log.Errorf("Failed to initialize WhatsApp client: %v", err)
			return fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		s.whatsappClient = client
		return nil
	}
}

func WithBroker() ServerOption {
	return func(s *Server) error {
		if s.cfg.NATS.URL == "" {
			return nil
		}

		b, err := broker.New(s.cfg.NATS.URL, s.cfg.NATS.Token, s.log)
		if err != nil {
			s.log.Errorf("Failed to connect to NATS: %v", err)
			return fmt.Errorf("failed to create broker: %w", err)
		}
		s.broker = b
		return nil
	}
}

func WithTTS() ServerOption {
	return func(s *Server) error {
		if s.cfg.TTS.APIKey == "" {
			s.log.Warn("ELEVENLABS_API_KEY not set, fake calls are unavailable")
			return nil
		}
		s.ttsClient = audio.NewTTSService(s.cfg.TTS.APIKey, s.cfg.TTS.VoiceID, s.cfg.TTS.BaseURL, &http.Client{Timeout: 30 * time.Second})
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithBcryptUtils() ServerOption {
	return func(s *Server) error {
		s.bcryptUtils = bcrypt.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Accounts
	authRepo := authRepository.New(s.db, s.log)
	authServices := authService.New(s.log, authRepo, s.jwt, s.bcryptUtils, s.utils)
	authHandlers := authHandler.New(s.log, authServices, s.validator, s.middleware)

	// Triage
	var generator llm.TextGenerator
	var conversational llm.Conversational
	if s.llmProvider != nil {
		generator = s.llmProvider
		conversational = s.llmProvider
	}

	triageServices := triageService.New(triageService.Dependencies{
		Log:           s.log,
		Repository:    triageRepository.New(s.redisServer, s.cfg.Redis.IncidentTTL, s.log),
		Users:         authServices.User(),
		Resolver:      s.resolver,
		Generator:     generator,
		Archives:      s.archives,
		WhatsApp:      s.whatsappClient,
		Mailer:        s.smtpMailer,
		Broker:        s.broker,
		Utils:         s.utils,
		FinalizeGrace: s.cfg.Session.FinalizeGrace,
	})
	triageHandlers := triageHandler.New(s.log, s.validator, s.middleware, triageServices)

	// Fake call
	fakecallServices := fakecallService.New(s.log, s.ttsClient, conversational)
	fakecallHandlers := fakecallHandler.New(s.log, fakecallServices, s.validator, s.middleware)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, authHandlers, triageHandlers, fakecallHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	s.engine.Use(s.middleware.NewRateLimiter)

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}

	if s.retention != nil {
		s.retention.Start()
	}

	return s.engine.Listen(fmt.Sprintf(":%s", s.cfg.App.Port))
}

// Shutdown stops accepting requests, then releases the outbound clients in
// parallel.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.engine.ShutdownWithContext(ctx); err != nil {
		s.log.Errorf("Failed to shut down HTTP server: %v", err)
	}

	var g errgroup.Group
	if s.retention != nil {
		g.Go(func() error {
			s.retention.Stop(ctx)
			return nil
		})
	}
	if s.whatsappClient != nil {
		g.Go(s.whatsappClient.Disconnect)
	}
	if s.broker != nil {
		g.Go(func() error {
			s.broker.Close()
			return nil
		})
	}
	if s.redisServer != nil {
		g.Go(s.redisServer.Close)
	}
	if s.geminiClient != nil {
		g.Go(s.geminiClient.Close)
	}
	if s.db != nil {
		g.Go(s.db.Close)
	}

	return g.Wait()
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
