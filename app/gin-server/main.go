package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/intervoice/backend/config"
	"github.com/intervoice/backend/internal/api/handlers"
	"github.com/intervoice/backend/internal/api/routes"
	"github.com/intervoice/backend/internal/audio"
	"github.com/intervoice/backend/internal/cache"
	"github.com/intervoice/backend/internal/events"
	"github.com/intervoice/backend/internal/lock"
	"github.com/intervoice/backend/internal/logger"
	"github.com/intervoice/backend/internal/models"
	"github.com/intervoice/backend/internal/providers/textgen"
	"github.com/intervoice/backend/internal/providers/tts"
	"github.com/intervoice/backend/internal/questiongen"
	pgrepo "github.com/intervoice/backend/internal/repositories/postgres"
	"github.com/intervoice/backend/internal/services"
	"github.com/intervoice/backend/internal/storage"

	redislib "github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	l := logger.New()
	ctx := context.Background()

	db, err := config.OpenPostgres(cfg.PostgresURI)
	if err != nil {
		l.WithError(err).Fatal("failed to connect to postgres")
	}
	if err := db.AutoMigrate(&models.User{}, &models.InterviewSession{}); err != nil {
		l.WithError(err).Fatal("failed to run migrations")
	}

	// Redis backs the session lock, read cache and progress feed. The server
	// still works without it, with in-memory locking and no live progress.
	var rdb *redislib.Client
	if cfg.RedisAddr != "" {
		rdb, err = config.OpenRedis(ctx, cfg.RedisAddr)
		if err != nil {
			l.WithError(err).Warn("redis unavailable, falling back to in-memory locking")
			rdb = nil
		}
	}

	gemini, err := textgen.NewVertexGemini(ctx, cfg.VertexProjectID, cfg.VertexLocation, cfg.TextModel)
	if err != nil {
		l.WithError(err).Fatal("failed to create text generation client")
	}
	defer gemini.Close()

	speech, err := tts.NewGoogleTTS(ctx, int32(cfg.TTSSampleRate))
	if err != nil {
		l.WithError(err).Fatal("failed to create speech client")
	}
	defer speech.Close()

	store, err := audio.NewFileStore(cfg.AudioDir)
	if err != nil {
		l.WithError(err).Fatal("failed to prepare audio directory")
	}

	var uploader storage.Uploader
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, cfg.GCSBucket)
		if err != nil {
			l.WithError(err).Warn("gcs unavailable, resume archival disabled")
		} else {
			uploader = gcs
		}
	}

	var (
		locker lock.Locker = lock.NewMemoryLocker()
		cch    cache.Cache
		pub    events.Publisher = events.Nop{}
	)
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb)
		cch = cache.NewRedisCache(rdb, "intervoice")
		pub = events.NewRedisPublisher(rdb)
	}

	userRepo := pgrepo.NewUserRepo(db)
	interviewRepo := pgrepo.NewInterviewRepo(db)

	userSvc := services.NewUserService(userRepo)
	resumeSvc := services.NewResumeService(interviewRepo, uploader, l)

	generator := questiongen.New(gemini)
	synth := audio.NewSynthesizer(speech, store, l, cfg.TTSVoice, cfg.TTSSampleRate)
	interviewSvc := services.NewInterviewService(interviewRepo, generator, synth, store, locker, cch, pub, l)

	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Logger:      l,
		JWTSecret:   cfg.JWTSecret,
		JWTIssuer:   cfg.JWTIssuer,
		JWTAudience: cfg.JWTAudience,
		Users:       userSvc,
		Interviews:  handlers.NewInterviewHandler(resumeSvc, interviewSvc),
		Progress:    handlers.NewProgressHandler(interviewSvc, rdb, l),
		Admin:       handlers.NewAdminHandler(interviewSvc, time.Duration(cfg.PurgeAfterHours)*time.Hour),
	})

	l.WithField("port", cfg.Port).Info("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		l.WithError(err).Fatal("server exited")
	}
}
