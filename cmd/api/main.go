package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/tourney-api/internal/application/otp"
	"github.com/tourney-api/internal/config"
	"github.com/tourney-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/tourney-api/internal/infrastructure/jwt"
	s3infra "github.com/tourney-api/internal/infrastructure/s3"
	"github.com/tourney-api/internal/infrastructure/smtp"
	"github.com/tourney-api/internal/infrastructure/sns"
	transporthttp "github.com/tourney-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for tournament banners.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	otpService := buildOTPService(cfg, dynamoClient)

	deps := &transporthttp.Deps{
		OTPService:       otpService,
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		TournamentRepo:   dynamo.NewTournamentRepo(dynamoClient, cfg.DynamoTables.Tournaments),
		EnrollmentRepo:   dynamo.NewEnrollmentRepo(dynamoClient, cfg.DynamoTables.Enrollments),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		TransactionRepo:  dynamo.NewTransactionRepo(dynamoClient, cfg.DynamoTables.Transactions),
		S3Store:          s3Store,
		JWTProvider:      jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// buildOTPService selects the delivery strategy once at startup: SMS over
// SNS, email over SMTP, or the fixed-code bypass. The bypass is refused
// outright in production.
func buildOTPService(cfg *config.Config, dynamoClient *dynamodb.Client) otp.Service {
	otpCfg := otp.Config{
		Channel:     cfg.OTPChannel,
		CodeLength:  cfg.OTPCodeLength,
		TTL:         cfg.OTPTTL,
		MaxAttempts: cfg.OTPMaxAttempts,
	}

	if cfg.OTPMockEnabled {
		if cfg.AppEnv == "production" {
			log.Fatal("OTP_MOCK_ENABLED is not allowed in production")
		}
		log.Printf("WARN: OTP mock mode enabled, sentinel code %q accepts all verifications", cfg.OTPMockCode)
		return otp.NewMockService(otpCfg, cfg.OTPMockCode)
	}

	var channel otp.Channel
	switch cfg.OTPChannel {
	case "email":
		channel = otp.NewEmailChannel(smtp.NewMailer(cfg))
	default:
		// SNS sender (optional — a missing sender surfaces as a
		// configuration error on the first send, not at startup).
		var smsSender sns.SMSSender
		if sender, err := sns.NewSender(cfg); err == nil {
			smsSender = sender
		} else {
			log.Printf("WARN: SNS sender not available: %v", err)
		}
		channel = otp.NewSMSChannel(smsSender)
	}

	store := dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs)
	return otp.NewService(store, channel, otpCfg)
}
