package controllers

import (
	"net/http"

	"github.com/aihub/chatdoc-go/app/bootstrap"
)

// HealthController 健康检查接口
type HealthController struct {
	BaseController
}

// Health 报告进程与依赖组件的就绪状态
// 向量索引不可用时报503，缓存只降级不影响整体状态
func (c *HealthController) Health() {
	app := bootstrap.GetApp()
	if app == nil {
		c.JSONError(http.StatusServiceUnavailable, "service not ready")
		return
	}

	indexReady := app.VectorStore().Ready()
	status := "ok"
	httpStatus := http.StatusOK
	if !indexReady {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, map[string]interface{}{
		"status": status,
		"components": map[string]bool{
			"vector_store": indexReady,
			"cache":        app.QueryCache().Ready(),
		},
	})
}
