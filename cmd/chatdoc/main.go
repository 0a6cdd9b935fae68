package main

import (
	"log"
	"os"
	"strconv"

	"github.com/aihub/chatdoc-go/app/bootstrap"
	"github.com/aihub/chatdoc-go/app/router"
	"github.com/aihub/chatdoc-go/internal/config"
	"github.com/aihub/chatdoc-go/internal/logger"
	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()

	router.Init()

	// 配置Beego全局设置
	web.BConfig.AppName = "ChatDoc Service"
	web.BConfig.CopyRequestBody = true

	port := config.GetAppConfig().Server.Port
	if envPort := os.Getenv("SERVER_PORT"); envPort != "" {
		port = envPort
	}
	if p, err := strconv.Atoi(port); err == nil {
		web.BConfig.Listen.HTTPPort = p
	} else {
		web.BConfig.Listen.HTTPPort = 8000
	}

	logger.Info("Starting ChatDoc Service", zap.Int("port", web.BConfig.Listen.HTTPPort))
	web.Run()
}
