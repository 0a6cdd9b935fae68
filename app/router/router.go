package router

import (
	"github.com/aihub/chatdoc-go/app/controllers"
	"github.com/aihub/chatdoc-go/app/middleware"
	"github.com/beego/beego/v2/server/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Init registers all routes. Must be called after config is loaded.
func Init() {
	web.InsertFilter("/*", web.BeforeRouter, middleware.CORSMiddleware)

	web.Router("/health", &controllers.HealthController{}, "get:Health")
	web.Router("/upload_pdfs", &controllers.UploadController{}, "post:UploadPDFs")
	web.Router("/ws", &controllers.ChatController{}, "get:Connect")

	web.Handler("/metrics", promhttp.Handler())
}
