package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/yoona333/TelephoneSystem/services"
	"github.com/yoona333/TelephoneSystem/services/container"
)

// HandleWebSocketFunc 返回推送通道握手的Gin处理函数
func HandleWebSocketFunc(container *container.ServiceContainer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		wsService := container.GetService("ws").(*services.WebSocketService)
		wsService.HandleConnection(ctx)
	}
}
