package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/churnrisk/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8501")
				convey.So(cfg.ModelPath, convey.ShouldEqual, "models/churn_forest.json")
				convey.So(cfg.EncodingMode, convey.ShouldEqual, "table")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CHURN_ADDR", ":8080")
			_ = os.Setenv("CHURN_MODEL_PATH", "/srv/models/forest.json")
			_ = os.Setenv("CHURN_ENCODING_MODE", "legacy")
			_ = os.Setenv("CHURN_RATE_LIMIT_RPS", "2.5")
			_ = os.Setenv("CHURN_RATE_LIMIT_BURST", "5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ModelPath, convey.ShouldEqual, "/srv/models/forest.json")
				convey.So(cfg.EncodingMode, convey.ShouldEqual, config.EncodingLegacy)
				convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 2.5)
				convey.So(cfg.RateLimitBurst, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
model_path: "testdata/forest.json"
log_format: json
log_level: debug
rate_limit_rps: 0
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CHURN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ModelPath, convey.ShouldEqual, "testdata/forest.json")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 0)
				convey.So(cfg.EncodingMode, convey.ShouldEqual, "table")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
model_path: "from-file.json"
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CHURN_CONFIG", tmpFile)
			_ = os.Setenv("CHURN_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ModelPath, convey.ShouldEqual, "from-file.json")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CHURN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CHURN_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("CHURN_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CHURN_RATE_LIMIT_BURST", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown encoding mode", func() {
			_ = os.Setenv("CHURN_ENCODING_MODE", "refit")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"CHURN_CONFIG",
		"CHURN_ADDR",
		"CHURN_MODEL_PATH",
		"CHURN_ENCODING_MODE",
		"CHURN_RATE_LIMIT_RPS",
		"CHURN_RATE_LIMIT_BURST",
		"CHURN_LOG_LEVEL",
		"CHURN_LOG_FORMAT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "churn-config-*.yaml")
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
