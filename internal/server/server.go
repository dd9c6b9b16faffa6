package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"konnectia/internal/config"
	"konnectia/internal/database"
	"konnectia/internal/dbx"
	"konnectia/internal/middlewares"
	"konnectia/internal/repositories"
	"konnectia/internal/services"
)

type Server struct {
	port       int
	cfg        *config.Config
	httpServer *http.Server
	db         database.Service
	limiter    *middlewares.RateLimiter

	tokenService   services.TokenService
	authService    services.AuthService
	otpService     services.OTPService
	sessionService services.SessionService
	userService    services.UserService
	postService    services.PostService
	profileService services.ProfileService
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB := db.SQL()
	tx := dbx.NewTransactor(sqlDB)
	repos := repositories.NewPostgresManager()

	postRepo := repositories.NewPostRepository(db.Mongo())
	commentRepo := repositories.NewCommentRepository(db.Mongo())
	likeRepo := repositories.NewEngagementRepository(db.Mongo(), repositories.LikesCollection)
	saveRepo := repositories.NewEngagementRepository(db.Mongo(), repositories.SavedPostsCollection)
	followRepo := repositories.NewFollowRepository(db.Mongo())
	for _, r := range []interface{ EnsureIndexes(context.Context) error }{postRepo, commentRepo, likeRepo, saveRepo, followRepo} {
		if err := r.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
	}

	media, err := newMediaService(cfg)
	if err != nil {
		return nil, err
	}

	tokens := services.NewTokenService(services.TokenConfig{
		Secret:        []byte(cfg.JWTSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		ActivationTTL: cfg.ActivationTokenTTL,
	})
	sessions := services.NewSessionService(sqlDB, repos, tokens)
	sms := services.NewTwilioSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.SMSTimeout)
	throttle := services.NewRedisOTPThrottle(db.Redis(), cfg.OTPSendLimit, cfg.OTPSendWindow)
	email := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	s := &Server{
		port:           cfg.Port,
		cfg:            cfg,
		db:             db,
		limiter:        middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		tokenService:   tokens,
		sessionService: sessions,
		authService:    services.NewAuthService(sqlDB, tx, repos, sessions, tokens, email, cfg.DefaultCountryCode, cfg.PublicURL),
		otpService:     services.NewOTPService(sqlDB, tx, repos, sessions, sms, throttle, cfg.DefaultCountryCode),
		userService:    services.NewUserService(sqlDB, tx, repos, followRepo, media),
		postService:    services.NewPostService(sqlDB, repos, postRepo, commentRepo, likeRepo, saveRepo, media),
		profileService: services.NewProfileService(sqlDB, repos, followRepo),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

func newMediaService(cfg *config.Config) (services.MediaService, error) {
	if cfg.CloudinaryName == "" {
		log.Warn().Msg("Cloudinary is not configured, uploads are disabled")
		return services.NewDisabledMediaService(), nil
	}
	return services.NewCloudinaryMediaService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
}

// Start serves HTTP and runs the background loops until the server is shut
// down.
func (s *Server) Start(ctx context.Context) error {
	go s.userService.TrackTotalUsers(ctx, 30*time.Second)
	go s.limiter.Cleanup(ctx, time.Minute, 3*time.Minute)
	go s.recordPoolStats(ctx, 15*time.Second)

	log.Info().Int("port", s.port).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) recordPoolStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.db.RecordPoolStats()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}
	if err := s.db.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Error closing database connections")
	}

	log.Info().Msg("Server exiting")
	done <- true
}
