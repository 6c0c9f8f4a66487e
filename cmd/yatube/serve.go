package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"yatube/internal/admin"
	"yatube/internal/cache"
	"yatube/internal/config"
	apphttp "yatube/internal/http"
	"yatube/internal/service"
	"yatube/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return serve(cfg, logger)
	},
}

func serve(cfg config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("setup storage: %w", err)
	}
	attachments := storage.NewAttachments(store, cfg.Storage.MaxBytes)

	pageCache, err := cache.New(ctx, cache.Options{
		Driver:        cfg.Cache.Driver,
		TTL:           cfg.Cache.TTL,
		Size:          cfg.Cache.Size,
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		RedisPrefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		return fmt.Errorf("setup cache: %w", err)
	}
	defer pageCache.Close()

	clock := service.RealClock{}
	users := service.NewUserService(repos.Users, clock)
	posts := service.NewPostService(repos.Posts, repos.Comments, repos.Groups, attachments, clock)
	groups := service.NewGroupService(repos.Groups, repos.Posts)
	follows := service.NewFollowService(repos.Users, repos.Follows, cfg.Feed.AllowSelfFollow)
	feed := service.NewFeedService(repos.Posts, repos.Comments, repos.Groups, repos.Users, follows, cfg.Feed.PageSize)

	renderer, err := apphttp.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	opts := apphttp.Options{
		Users:     users,
		Posts:     posts,
		Groups:    groups,
		Follows:   follows,
		Feed:      feed,
		Images:    attachments,
		PageCache: pageCache,
		Sessions:  apphttp.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Renderer:  renderer,
		Logger:    logger,
		LoginURL:  cfg.Auth.LoginURL,
	}
	if fs, ok := store.(*storage.FileSystemService); ok {
		opts.MediaDir = fs.Root()
		opts.MediaURL = cfg.Storage.MediaURL
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	apphttp.NewHandler(opts).RegisterRoutes(router)

	if cfg.Admin.Password != "" {
		registry, err := admin.NewDefaultRegistry(admin.Sources{
			Groups:   repos.Groups,
			Posts:    repos.Posts,
			Comments: repos.Comments,
			Follows:  repos.Follows,
		})
		if err != nil {
			return fmt.Errorf("build admin registry: %w", err)
		}
		group := router.Group("/admin", gin.BasicAuth(gin.Accounts{cfg.Admin.Username: cfg.Admin.Password}))
		admin.NewHandler(registry, groups, pageCache, logger).RegisterRoutes(group)
		logger.Infof("admin api enabled for %s", cfg.Admin.Username)
	} else {
		logger.Warn("admin.password is empty, admin api disabled")
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	logger.Info("bye")
	return nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	switch cfg.Storage.Driver {
	case "", "filesystem":
		logger.Infof("storing media in %s", cfg.Storage.MediaDir)
		return storage.NewFileSystemService(cfg.Storage.MediaDir, cfg.Storage.MediaURL)
	case "s3":
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}

	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client, cfg.Storage.Bucket), nil
}
