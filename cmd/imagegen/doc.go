// Copyright (c) imagegen Authors.
// Licensed under the MIT License.

/*
Package main 提供 imagegen 的可执行入口。

# 子命令

  - serve：启动 HTTP 服务，API 与 /metrics 分别监听两个端口
  - generate：直接调用 skill 生成图片，结果以 JSON 输出到 stdout
  - models：列出各平台的前缀规则与支持的模型
  - version / health：版本信息与远程健康检查

# 中间件链

Recovery → RequestID → OTelTracing → MetricsMiddleware → SecurityHeaders →
RequestLogger → RateLimiter（按 IP）→ APIKeyAuth（X-API-Key 或 Bearer）。
server.api_keys 为空时不启用认证，rate_limit_rps 为 0 时不限流。

Version、BuildTime、GitCommit 通过 ldflags 注入。
*/
package main
