package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mobilecsp/activityscores/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"ACTIVITYSCORES_CONFIG",
		"ACTIVITYSCORES_ADDR",
		"ACTIVITYSCORES_LOG_LEVEL",
		"ACTIVITYSCORES_DB_PATH",
		"ACTIVITYSCORES_BATCH_SIZE",
		"ACTIVITYSCORES_REPORT_EVERY",
		"ACTIVITYSCORES_WORKER_COUNT",
		"ACTIVITYSCORES_MAX_STUDENTS_PER_REQUEST",
	} {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BatchSize, convey.ShouldEqual, 500)
				convey.So(cfg.ReportEvery, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ACTIVITYSCORES_ADDR", ":9090")
			_ = os.Setenv("ACTIVITYSCORES_BATCH_SIZE", "250")
			_ = os.Setenv("ACTIVITYSCORES_WORKER_COUNT", "4")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.BatchSize, convey.ShouldEqual, 250)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			clearConfigEnvVars()
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			yamlBody := "addr: \":7070\"\nbatch_size: 100\nreport_every: 50\n"
			convey.So(os.WriteFile(path, []byte(yamlBody), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("ACTIVITYSCORES_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.BatchSize, convey.ShouldEqual, 100)
				convey.So(cfg.ReportEvery, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When the config is invalid", func() {
			_ = os.Setenv("ACTIVITYSCORES_BATCH_SIZE", "-1")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading should fail with ErrInvalidConfig", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "invalid config")
			})
		})
	})
}
