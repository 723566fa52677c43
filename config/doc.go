// Package config 提供 imagegen 的配置管理功能。
//
// 支持从 YAML 文件和环境变量加载配置。环境变量 BLT_API_KEY、BLT_BASE_URL、
// GRSAI_API_KEY、GRSAI_BASE_URL 优先于配置文件中的 blt.* / grsai.*；
// 找不到配置文件时所有项回落到硬编码默认值。
package config
