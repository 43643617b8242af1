// Package stat 采集宿主机运行状态，供仪表盘系统概览使用
package stat

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats 宿主机运行状态快照
type Stats struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	Platform      string  `json:"platform"`
	UptimeSec     uint64  `json:"uptime_sec"`
	CPUPercent    float64 `json:"cpu_percent"`     // CPU 使用率 (0-100)
	MemTotal      uint64  `json:"mem_total"`       // 内存总量（字节）
	MemUsed       uint64  `json:"mem_used"`        // 已用内存（字节）
	MemPercent    float64 `json:"mem_percent"`     // 内存使用率 (0-100)
	DiskTotal     uint64  `json:"disk_total"`      // 磁盘总量（字节）
	DiskUsed      uint64  `json:"disk_used"`       // 已用磁盘（字节）
	DiskPercent   float64 `json:"disk_percent"`    // 磁盘使用率 (0-100)
	CollectedAtMs int64   `json:"collected_at_ms"` // 采集时间（毫秒时间戳）
}

// Collect 采集一次宿主机状态，单项失败不影响其他项
func Collect(ctx context.Context) Stats {
	var out Stats
	out.CollectedAtMs = time.Now().UnixMilli()

	if info, err := host.InfoWithContext(ctx); err == nil {
		out.Hostname = info.Hostname
		out.OS = info.OS
		out.Platform = info.Platform
		out.UptimeSec = info.Uptime
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		out.CPUPercent = percents[0]
	}

	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		out.MemTotal = v.Total
		out.MemUsed = v.Used
		out.MemPercent = v.UsedPercent
	}

	if u, err := disk.UsageWithContext(ctx, "/"); err == nil {
		out.DiskTotal = u.Total
		out.DiskUsed = u.Used
		out.DiskPercent = u.UsedPercent
	}

	return out
}
