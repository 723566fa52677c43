// Package tlsutil 提供访问上游图像平台时使用的 TLS 与 Transport 配置。
package tlsutil
