package rpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// AnalyzerClient 封装分析服务的 gRPC 客户端，用于健康探测
type AnalyzerClient struct {
	conn *grpc.ClientConn
	cli  grpc_health_v1.HealthClient
}

// NewAnalyzerClient 创建分析服务客户端实例
func NewAnalyzerClient(addr string) *AnalyzerClient {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		slog.Error("NewAnalyzerClient", "err", err)
		return nil
	}

	c := AnalyzerClient{
		conn: conn,
		cli:  grpc_health_v1.NewHealthClient(conn),
	}

	go func() {
		resp, err := c.cli.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
		if err != nil {
			slog.Error("HealthCheck", "err", err)
			return
		}
		if resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			slog.Info("HealthCheck OK", "resp", resp)
		} else {
			slog.Error("HealthCheck", "resp", resp)
		}
	}()
	return &c
}

// Ping 主动探测分析服务是否可用
func (c *AnalyzerClient) Ping(ctx context.Context) (bool, error) {
	resp, err := c.cli.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING, nil
}

// Close 关闭底层连接
func (c *AnalyzerClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
