// =============================================================================
// 📦 imagegen 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

const (
	// DefaultBLTBaseURL 柏拉图平台默认地址
	DefaultBLTBaseURL = "https://api.bltcy.ai"
	// DefaultGrsaiBaseURL GrsAI 平台默认地址
	DefaultGrsaiBaseURL = "https://api.grsai.com"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		BLT:       ProviderConfig{BaseURL: DefaultBLTBaseURL},
		Grsai:     ProviderConfig{BaseURL: DefaultGrsaiBaseURL},
		Defaults:  DefaultDefaultsConfig(),
		Server:    DefaultServerConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultDefaultsConfig 返回默认请求参数
func DefaultDefaultsConfig() DefaultsConfig {
	return DefaultsConfig{
		Provider: "auto",
		Model:    "nano-banana",
		Size:     "1024x1024",
		N:        1,
		Timeout:  Seconds(600 * time.Second),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    11 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "imagegen",
		SampleRate:   0.1,
	}
}
