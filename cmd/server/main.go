package main

import (
	"context"
	"expvar"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gowvp/argus/internal/app"
	"github.com/gowvp/argus/internal/conf"
	"github.com/ixugo/goddd/pkg/system"
)

// 编译期通过 -ldflags 注入
var (
	buildVersion = "dev"
	gitBranch    = "unknown"
	gitHash      = "unknown"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "c", filepath.Join(system.Getwd(), "configs", "config.toml"), "配置文件路径")
	flag.Parse()

	expvar.NewString("git_branch").Set(gitBranch)
	expvar.NewString("git_hash").Set(gitHash)

	bc, err := conf.SetupConfig(configPath)
	if err != nil {
		slog.Error("加载配置失败", "err", err, "path", configPath)
		os.Exit(1)
	}
	bc.BuildVersion = buildVersion

	log := setupLogger(bc.Server.Debug)
	slog.SetDefault(log)

	srv, err := app.Run(bc, log)
	if err != nil {
		log.Error("启动失败", "err", err)
		os.Exit(1)
	}
	log.Info("argus started", "version", buildVersion, "branch", gitBranch, "hash", gitHash)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("退出异常", "err", err)
	}
	log.Info("bye")
}

// setupLogger 调试模式输出文本日志，生产模式输出 JSON 便于采集
func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := slog.HandlerOptions{Level: level}
	if debug {
		return slog.New(slog.NewTextHandler(os.Stdout, &opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &opts))
}
