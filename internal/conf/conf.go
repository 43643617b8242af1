package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Bootstrap 全局配置
type Bootstrap struct {
	ConfigPath   string `toml:"-"`
	BuildVersion string `toml:"-"`

	Server Server `toml:"server"`
	Data   Data   `toml:"data"`
	Detect Detect `toml:"detect"`
}

type Server struct {
	Debug    bool   `toml:"debug"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	HTTP     HTTP   `toml:"http"`
	Alert    Alert  `toml:"alert"`
}

type HTTP struct {
	Port      int    `toml:"port"`
	JwtSecret string `toml:"jwt_secret"`
	PProf     PProf  `toml:"pprof"`
}

type PProf struct {
	Enabled   bool     `toml:"enabled"`
	AccessIps []string `toml:"access_ips"`
}

// Alert 告警存储配置
type Alert struct {
	// RetainDays 告警及快照保留天数，<=0 表示不清理
	RetainDays int `toml:"retain_days"`
}

type Data struct {
	Database Database `toml:"database"`
}

type Database struct {
	// Dsn 以 postgres/mysql 开头时使用对应数据库，否则视为 sqlite 文件路径
	Dsn             string   `toml:"dsn"`
	MaxIdleConns    int32    `toml:"max_idle_conns"`
	MaxOpenConns    int32    `toml:"max_open_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
	SlowThreshold   Duration `toml:"slow_threshold"`
}

// Detect 检测流聚合配置
type Detect struct {
	// Analyzer AI 分析服务 HTTP 地址，如 http://127.0.0.1:8090
	Analyzer string `toml:"analyzer"`
	// GrpcAddr AI 分析服务 gRPC 地址，用于健康检查
	GrpcAddr string `toml:"grpc_addr"`
	// Offset 建立连接时的事件回放偏移量，新打开的视图可以看到部分历史事件
	Offset int `toml:"offset"`
	// ReconnectDelay 断线重连间隔，固定延迟，非指数退避
	ReconnectDelay Duration `toml:"reconnect_delay"`
	// PendingTTL 待关联缓冲的最大驻留时长，0 表示永不清理
	PendingTTL Duration `toml:"pending_ttl"`
	// EnableNotify 新视频流上线时是否发送通知
	EnableNotify bool `toml:"enable_notify"`
}

// Duration 支持 "1s"/"5m" 写法的时长配置
type Duration string

func (d Duration) Duration() time.Duration {
	v, err := time.ParseDuration(string(d))
	if err != nil {
		return 0
	}
	return v
}

// SetupConfig 读取配置文件并填充默认值
// 文件不存在时使用默认配置并写出一份，方便首次部署
func SetupConfig(path string) (*Bootstrap, error) {
	var bc Bootstrap
	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, &bc); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	bc.ConfigPath = path
	setupDefault(&bc)

	if os.IsNotExist(err) {
		if err := WriteConfig(&bc, path); err != nil {
			return nil, err
		}
	}
	return &bc, nil
}

func setupDefault(bc *Bootstrap) {
	if bc.Server.HTTP.Port == 0 {
		bc.Server.HTTP.Port = 8081
	}
	if bc.Data.Database.Dsn == "" {
		bc.Data.Database.Dsn = "argus.db"
	}
	if bc.Data.Database.MaxIdleConns == 0 {
		bc.Data.Database.MaxIdleConns = 10
	}
	if bc.Data.Database.MaxOpenConns == 0 {
		bc.Data.Database.MaxOpenConns = 100
	}
	if bc.Data.Database.ConnMaxLifetime.Duration() == 0 {
		bc.Data.Database.ConnMaxLifetime = "6h"
	}
	if bc.Data.Database.SlowThreshold.Duration() == 0 {
		bc.Data.Database.SlowThreshold = "200ms"
	}
	if bc.Detect.Analyzer == "" {
		bc.Detect.Analyzer = "http://127.0.0.1:8090"
	}
	if bc.Detect.GrpcAddr == "" {
		bc.Detect.GrpcAddr = "127.0.0.1:50051"
	}
	if bc.Detect.Offset == 0 {
		bc.Detect.Offset = 10
	}
	if bc.Detect.ReconnectDelay.Duration() == 0 {
		bc.Detect.ReconnectDelay = "1s"
	}
}

// WriteConfig 将配置写回文件
func WriteConfig(bc *Bootstrap, path string) error {
	data, err := toml.Marshal(bc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
