// Copyright (c) imagegen Authors.
// Licensed under the MIT License.

/*
Package server 管理 imagegen 的 HTTP 服务器生命周期。

Manager 封装 net/http.Server，提供非阻塞启动、优雅关闭、
SIGINT/SIGTERM 监听与异步错误传播。imagegen serve 用它分别
运行 API 服务器和 /metrics 服务器，两者的超时都来自
config.ServerConfig（见 FromServerConfig）。
*/
package server
