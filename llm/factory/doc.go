// Package factory 提供图像 Provider 的集中式工厂，
// 通过名称映射创建 Provider 实例，并按配置组装 image.Registry。
package factory
