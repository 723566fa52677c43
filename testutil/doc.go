// Copyright (c) imagegen Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 imagegen 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext
  - 断言工具: AssertJSONEqual / AssertEventuallyTrue
  - 数据工具: MustJSON / MustParseJSON
  - 上游模拟: UpstreamServer 返回固定响应并记录收到的请求

# 子包

  - testutil/mocks: MockProvider（image.Provider）与 MockMetrics
  - testutil/fixtures: 柏拉图 JSON 响应与 GrsAI SSE 响应样例

# 使用示例

	srv := testutil.NewUpstreamServer(t, http.StatusOK, "text/event-stream",
		fixtures.GrsaiGeneration("https://img/1.png"))
	cfg := config.DefaultConfig()
	cfg.Grsai = config.ProviderConfig{APIKey: "k", BaseURL: srv.URL}
*/
package testutil
