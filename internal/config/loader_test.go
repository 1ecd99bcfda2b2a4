package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/househunt/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, "memory")
				convey.So(cfg.SessionCheckIntervalS, convey.ShouldEqual, 300)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("HOUSEHUNT_ADDR", ":8080")
			_ = os.Setenv("HOUSEHUNT_STORE_BACKEND", "redis")
			_ = os.Setenv("HOUSEHUNT_REDIS_URL", "redis://cache:6379/1")
			_ = os.Setenv("HOUSEHUNT_REMOTE_RPS", "2.5")
			_ = os.Setenv("HOUSEHUNT_AUTH_TOKEN", "abc")
			_ = os.Setenv("HOUSEHUNT_AUTH_INSECURE", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, "redis")
				convey.So(cfg.RedisURL, convey.ShouldEqual, "redis://cache:6379/1")
				convey.So(cfg.RemoteRPS, convey.ShouldEqual, 2.5)
				convey.So(cfg.AuthToken, convey.ShouldEqual, "abc")
				convey.So(cfg.AuthInsecure, convey.ShouldBeTrue)
				convey.So(cfg.ValidateServer(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
store_backend: postgres
database_url: "postgres://u:p@db/househunt"
session_check_interval_s: 60
sync_queue_size: 8
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("HOUSEHUNT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, "postgres")
				convey.So(cfg.SessionCheckIntervalS, convey.ShouldEqual, 60)
				convey.So(cfg.SyncQueueSize, convey.ShouldEqual, 8)
			})

			convey.Convey("And env vars should take precedence over the file", func() {
				_ = os.Setenv("HOUSEHUNT_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("HOUSEHUNT_CONFIG", "/nonexistent/househunt.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail with ErrLoadConfig", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file empties the address", func() {
			tmpFile := createTempConfigFile(`addr: ""`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("HOUSEHUNT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"HOUSEHUNT_CONFIG",
		"HOUSEHUNT_ADDR",
		"HOUSEHUNT_STORE_BACKEND",
		"HOUSEHUNT_REDIS_URL",
		"HOUSEHUNT_REMOTE_RPS",
		"HOUSEHUNT_AUTH_TOKEN",
		"HOUSEHUNT_JWT_SECRET",
		"HOUSEHUNT_AUTH_INSECURE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "househunt-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
