package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"yatube/internal/cache"
	"yatube/internal/service"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
}

var (
	groupTitle       string
	groupSlug        string
	groupDescription string
)

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		db, repos, err := openRepositories(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		g, err := service.NewGroupService(repos.Groups, repos.Posts).Create(ctx, groupTitle, groupSlug, groupDescription)
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created group %q (id %d, slug %s)\n", g.Title, g.ID, g.Slug)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var (
	userName     string
	userPassword string
)

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		db, repos, err := openRepositories(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := service.NewUserService(repos.Users, service.RealClock{}).Register(ctx, userName, userPassword)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", u.Username, u.ID)
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the page cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached page",
	Long:  "Drop every cached page. Only the redis backend is shared between processes; a memory cache lives inside the running server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Cache.Driver != "redis" {
			return fmt.Errorf("cache driver %q is private to the server process, use POST /admin/cache/clear", cfg.Cache.Driver)
		}
		ctx := cmd.Context()
		store, err := cache.New(ctx, cache.Options{
			Driver:        cfg.Cache.Driver,
			TTL:           cfg.Cache.TTL,
			Size:          cfg.Cache.Size,
			RedisAddr:     cfg.Redis.Addr,
			RedisPassword: cfg.Redis.Password,
			RedisDB:       cfg.Redis.DB,
			RedisPrefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer store.Close()

		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Page cache cleared")
		return nil
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupTitle, "title", "", "group title")
	groupCreateCmd.Flags().StringVar(&groupSlug, "slug", "", "unique url slug")
	groupCreateCmd.Flags().StringVar(&groupDescription, "description", "", "group description")
	_ = groupCreateCmd.MarkFlagRequired("title")
	_ = groupCreateCmd.MarkFlagRequired("slug")

	userCreateCmd.Flags().StringVar(&userName, "username", "", "username")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")
}
