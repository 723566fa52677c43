// Copyright (c) imagegen Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP 与图像生成两个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 图像生成指标：请求总数（success/failure）、生成耗时、
    返回图片数量，按 provider/model 分组；Provider 选择方式
    （auto/explicit）计数。
*/
package metrics
