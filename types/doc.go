// Copyright (c) imagegen Authors.
// Licensed under the MIT License.

/*
Package types 提供 imagegen 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 llm/image、skill、api 等
上层模块提供统一的错误契约。

# 核心类型

  - Error / ErrorCode — 结构化错误体系，含 HTTP 状态码、Retryable、Provider 标记

# 错误分类

  - 输入错误：INVALID_REQUEST
  - 查找失败：MODEL_NOT_FOUND / PROVIDER_NOT_FOUND / NO_PROVIDERS
  - 配置错误：CONFIGURATION
  - 上游错误：UNAUTHORIZED / RATE_LIMITED / UPSTREAM_ERROR / UPSTREAM_TIMEOUT 等
  - 解析错误：PARSE_ERROR

# 主要能力

  - 错误工具链：AsError / IsErrorCode / IsRetryable / GetErrorCode
*/
package types
