// Copyright (c) imagegen Authors.
// Licensed under the MIT License.

/*
Package api 是 imagegen HTTP 接口层的根包，处理器实现位于 api/handlers。

# 端点

	POST /api/v1/images/generations   请求体即 skill 输入，响应为五字段结果
	GET  /api/v1/models               各平台支持的模型
	GET  /health /healthz /ready      健康检查
	GET  /version                     版本信息

/metrics 由独立端口提供。
*/
package api
