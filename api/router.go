// Package api contains all endpoints available
package api

import (
	"context"
	"fmt"
	"time"

	"hearly/transcription-api/auth"
	"hearly/transcription-api/aws"
	"hearly/transcription-api/middleware"
	"hearly/transcription-api/service"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	Router   *gin.Engine
	Files    *service.Lifecycle
	Stats    *service.Stats
	Cognito  *aws.Cognito
	Users    *aws.UserStore
	Verifier *auth.Verifier
}

func NewRouter() (*API, error) {
	makeLogger()

	a := &API{}

	ctx := context.Background()

	cfg, err := aws.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS credentials, %w", err)
	}

	audio, err := aws.NewS3(cfg, viper.GetString("s3.bucket"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio bucket client, %w", err)
	}

	results, err := aws.NewS3(cfg, viper.GetString("s3.output_bucket"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize output bucket client, %w", err)
	}

	summaries, err := aws.NewS3(cfg, viper.GetString("s3.summaries_bucket"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize summaries bucket client, %w", err)
	}

	a.Files = service.NewLifecycle(
		aws.NewFileStore(cfg, viper.GetString("dynamo.files_table")),
		audio,
		results,
		summaries,
		aws.NewTranscribeRunner(cfg, viper.GetString("transcribe.lambda_function"), results.BucketName()),
		service.NewAzureOpenAI(
			viper.GetString("azure.oai_endpoint"),
			viper.GetString("azure.oai_key"),
			viper.GetString("azure.oai_model"),
		),
	)
	a.Stats = service.NewStats(a.Files)
	a.Cognito = aws.NewCognito(cfg, viper.GetString("cognito.app_client_id"), viper.GetString("cognito.client_secret"))
	a.Users = aws.NewUserStore(cfg, viper.GetString("dynamo.users_table"))

	a.Verifier, err = auth.NewVerifier(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier, %w", err)
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{viper.GetString("host.frontend_origin")},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = 5 << 20

	bearer := middleware.NewAuthMiddleware(a.Verifier)
	dispatchLimit := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 1,
		Burst:             3,
	})

	// POST /upload/			-> Ingests a new audio file
	router.POST("/upload/", bearer, a.Upload)

	// GET /files/				-> Lists the caller's files with signed URLs
	router.GET("/files/", bearer, a.FileList)

	// POST /files/:fileID/delete		-> Deletes a file and its artifacts
	router.POST("/files/:fileID/delete", bearer, a.FileDelete)

	// POST /transcribe/:fileID		-> Dispatches a transcription job
	router.POST("/transcribe/:fileID", bearer, dispatchLimit, a.Transcribe)

	// GET /transcription/:fileID		-> Polls for the transcription result
	router.GET("/transcription/:fileID", bearer, a.Transcription)

	// GET /summarize/:fileID		-> Summarizes a completed transcription
	router.GET("/summarize/:fileID", bearer, a.Summarize)

	// Public usage reports. Kept unauthenticated to match the observed
	// contract; cached since they scan the whole partition
	users := router.Group("/users")
	{
		users.GET("/:username/language-distribution", cacheFor(30), a.LanguageDistribution)
		users.GET("/:username/recent-activity", cacheFor(30), a.RecentActivity)
		users.GET("/:username/total-duration", cacheFor(30), a.TotalDuration)
	}

	authGroup := router.Group("/api/v1/auth")
	{
		// POST /api/v1/auth/signup	-> Registers a new user
		authGroup.POST("/signup", a.UserRegister)

		// POST /api/v1/auth/verify	-> Confirms a signup code
		authGroup.POST("/verify", a.UserVerify)

		// POST /api/v1/auth/login	-> Logs a user in and returns tokens
		authGroup.POST("/login", a.UserLogin)
	}

	return a, nil
}

// Reapplied here from config so tests can build routers without the
// full config pass
func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
