package image

import "time"

// DefaultTimeout 单次生成请求的默认超时
const DefaultTimeout = 600 * time.Second

// ProviderConfig 图像平台的通用配置
type ProviderConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"` // 请求未指定模型时使用
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// WithDefaults 返回填充了缺省值的副本
func (c ProviderConfig) WithDefaults(baseURL string) ProviderConfig {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Model == "" {
		c.Model = "nano-banana"
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
