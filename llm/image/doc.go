// Copyright (c) imagegen Authors.
// Licensed under the MIT License.

/*
包 image 提供统一的图像生成路由抽象，把一次生成请求分发给
柏拉图（blt）或 GrsAI（grsai）两个上游平台之一。

# 概述

上层调用方只面对一个 map 形式的输入与一个五字段的结果。本包负责：

  - GenerateRequest：从原始输入构造的规范化请求，未知字段原样保存在 Extra 中。
  - Result：统一的生成结果，失败时 Success=false 并带有可读的 Message。
  - Provider：图像平台接口，Generate 永远不返回 error，所有失败都折叠进 Result。
  - NormalizeSizeAndRatio：size / aspect_ratio 的互相推断。
  - Registry：按注册顺序保存平台构造函数，并按模型名前缀自动选择平台。
  - Client：共享的 HTTP 调用与错误映射（Bearer 认证、状态码到 types.Error）。

具体平台实现位于子包 blt 与 grsai。
*/
package image
