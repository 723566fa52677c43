// Copyright (c) imagegen Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 imagegen HTTP API 的请求处理器。

# 核心类型

  - ImageHandler   — POST /api/v1/images/generations 与 GET /api/v1/models
  - HealthHandler  — /health、/healthz、/ready、/version
  - Response       — 非生成端点的统一 JSON 包装（success + data + error）
  - ResponseWriter — 包装 http.ResponseWriter 以捕获状态码

生成接口直接返回五字段结果（success / images / provider / model / message）。
失败时从消息中的 "[CODE]" 取错误码映射 HTTP 状态；没有错误码时，
skill 自身失败返回 500，平台报告的失败返回 502。
*/
package handlers
