// Package router 提供按模型名前缀选择图像平台的路由。
package router

import (
	"strings"
)

// PrefixRule 前缀路由规则
type PrefixRule struct {
	Prefix   string // 模型名前缀（如 "nano", "sora-image"）
	Provider string // Provider 名称（如 "blt", "grsai"）
}

// PrefixRouter 前缀路由器
// 规则按声明顺序匹配，先声明的规则优先，不按前缀长度重排
type PrefixRouter struct {
	rules []PrefixRule
}

// NewPrefixRouter 创建前缀路由器
func NewPrefixRouter(rules []PrefixRule) *PrefixRouter {
	copied := make([]PrefixRule, len(rules))
	copy(copied, rules)
	return &PrefixRouter{rules: copied}
}

// Route 按声明顺序返回第一条匹配且被 accept 接受的规则的 Provider。
// accept 为 nil 时接受任意 Provider。
func (r *PrefixRouter) Route(modelID string, accept func(provider string) bool) (string, bool) {
	if r == nil || len(r.rules) == 0 || modelID == "" {
		return "", false
	}

	for _, rule := range r.rules {
		if !strings.HasPrefix(modelID, rule.Prefix) {
			continue
		}
		if accept == nil || accept(rule.Provider) {
			return rule.Provider, true
		}
	}

	return "", false
}
