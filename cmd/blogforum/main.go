package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ozanberk/blogforum/internal/auth"
	"github.com/ozanberk/blogforum/internal/cache"
	"github.com/ozanberk/blogforum/internal/config"
	"github.com/ozanberk/blogforum/internal/handlers"
	"github.com/ozanberk/blogforum/internal/media"
	"github.com/ozanberk/blogforum/internal/models"
	"github.com/ozanberk/blogforum/internal/ratelimit"
	"github.com/ozanberk/blogforum/internal/repository"
	"github.com/ozanberk/blogforum/internal/routes"
)

// Version will be set during build with ldflags
var Version = "1.0.0"

func main() {
	root := &cobra.Command{
		Use:     "blogforum",
		Short:   "Server-rendered blogging and forum platform",
		Version: Version,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newCreateAdminCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := repository.NewDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			storage, err := media.NewStorage(cfg.Uploads.Dir)
			if err != nil {
				return err
			}

			store := cache.NewMemory(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
			limiter := ratelimit.New(map[string]ratelimit.Budget{
				ratelimit.BucketPostCreate: ratelimit.PerMinute(cfg.RateLimit.PostPerMinute),
				ratelimit.BucketReact:      ratelimit.PerMinute(cfg.RateLimit.ReactPerMinute),
				ratelimit.BucketGlobal:     ratelimit.PerHour(cfg.RateLimit.GlobalPerHour),
			})

			if !cfg.Debug {
				gin.SetMode(gin.ReleaseMode)
			}
			r := gin.Default()
			r.MaxMultipartMemory = cfg.Uploads.MaxSizeMB << 20

			h := handlers.NewHandler(db.DB, store, storage, cfg)
			routes.Setup(r, h, db.DB, store, limiter, cfg)

			log.Printf("blogforum listening on %s", cfg.Server.Addr())
			return r.Run(cfg.Server.Addr())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := repository.NewDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(); err != nil {
				return err
			}
			log.Println("migration complete")
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-admin",
		Short: "Seed the admin account from configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Admin.Password == "" {
				fmt.Fprintln(os.Stderr, "ADMIN_PASSWORD is not set")
				os.Exit(1)
			}

			db, err := repository.NewDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(); err != nil {
				return err
			}

			hash, err := auth.HashPassword(cfg.Admin.Password)
			if err != nil {
				return err
			}

			admin := models.User{
				Username: cfg.Admin.Username,
				Email:    cfg.Admin.Email,
				Password: hash,
				Role:     models.RoleAdmin,
			}
			if err := db.DB.Create(&admin).Error; err != nil {
				return fmt.Errorf("creating admin user: %w", err)
			}
			log.Printf("admin user %q created", admin.Username)
			return nil
		},
	}
}
