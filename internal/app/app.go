package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gowvp/argus/internal/conf"
)

// Server 聚合 HTTP 服务与依赖清理函数
type Server struct {
	srv     *http.Server
	cleanup func()
}

// Run 初始化依赖并启动 HTTP 服务，立即返回，由调用方控制退出
func Run(bc *conf.Bootstrap, log *slog.Logger) (*Server, error) {
	handler, cleanup, err := wireApp(bc, log)
	if err != nil {
		return nil, fmt.Errorf("wire app: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", bc.Server.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server exited", "err", err)
		}
	}()

	return &Server{srv: srv, cleanup: cleanup}, nil
}

// Shutdown 优雅退出
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.cleanup()
	return s.srv.Shutdown(ctx)
}
