package controllers

import (
	"net/http"

	"github.com/aihub/chatdoc-go/internal/di"
	"github.com/aihub/chatdoc-go/internal/logger"
	"github.com/aihub/chatdoc-go/internal/services"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// 浏览器前端跨源连接，与HTTP侧的CORS策略保持一致的宽松度
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChatController 问答WebSocket接口
type ChatController struct {
	BaseController
}

// Connect 升级连接并运行一个问答会话
func (c *ChatController) Connect() {
	var session *services.ChatSessionService
	if err := di.Invoke(func(s *services.ChatSessionService) {
		session = s
	}); err != nil {
		logger.Error("failed to resolve chat session service", zap.Error(err))
		c.JSONError(http.StatusInternalServerError, "internal server error")
		return
	}

	conn, err := upgrader.Upgrade(c.Ctx.ResponseWriter, c.Ctx.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// 升级后由Beego接管的连接已移交，会话循环阻塞到连接断开
	session.Run(c.Ctx.Request.Context(), conn)

	// 阻止Beego再向已升级的连接写响应
	c.EnableRender = false
}
