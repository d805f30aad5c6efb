package main

import (
	"log/slog"
	"os"

	"coachlink/config"
	"coachlink/internal/api"
	"coachlink/internal/auth"
	"coachlink/internal/chat"
	"coachlink/internal/database"
	"coachlink/internal/email"
	"coachlink/internal/sessions"
	"coachlink/internal/user"
	"coachlink/internal/verification"
	"coachlink/pkg/jwt"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Error("migrate database", "error", err)
		os.Exit(1)
	}

	users := user.NewPostgresStorage(db)
	codes := verification.NewPostgresStorage(db)
	sessionStore := sessions.NewPostgresStorage(db)

	tokens := jwt.NewManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	var mailer email.Mailer = email.NopMailer{}
	if cfg.SMTPHost != "" {
		mailer = email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		logger.Warn("SMTP_HOST not set, outgoing mail disabled")
	}

	authService := auth.NewService(users, codes, sessionStore, mailer, tokens, cfg.AppOrigin, logger)

	cookies := auth.CookieConfig{
		Secure:     !cfg.Development,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}

	hub := chat.NewHub(users, logger)

	server := api.NewServer(
		":"+cfg.Port,
		auth.NewJSONHandler(authService, cookies),
		user.NewJSONHandler(users),
		chat.NewHandler(tokens, hub, cfg.AppOrigin, logger),
		auth.Middleware(tokens),
		logger,
	)

	if err := server.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
