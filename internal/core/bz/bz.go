// Package bz 业务常量
package bz

const (
	// IDPrefixDevice 设备唯一 ID 前缀
	IDPrefixDevice = "dev"
)
