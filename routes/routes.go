package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yoona333/TelephoneSystem/config"
	"github.com/yoona333/TelephoneSystem/controllers"
	_ "github.com/yoona333/TelephoneSystem/docs"
	"github.com/yoona333/TelephoneSystem/services/container"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件，移动客户端从任意来源访问
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, Pragma, Origin, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// 创建服务容器
	serviceContainer := container.NewServiceContainer(cfg)

	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 外部自ping的保活探针，防止宿主闲置休眠
	r.GET("/keep-alive", func(c *gin.Context) {
		c.String(http.StatusOK, "alive")
	})

	// 推送通道
	r.GET("/ws", controllers.HandleWebSocketFunc(serviceContainer))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")

	// 设置正确的Content-Type，确保UTF-8编码
	api.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})

	// 健康检查
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// 通话控制路由
	api.GET("/status", controllers.HandleCallFunc(container, "getStatus"))
	api.GET("/calls", controllers.HandleCallFunc(container, "getCalls"))
	api.POST("/call", controllers.HandleCallFunc(container, "startCall"))
	api.POST("/answer", controllers.HandleCallFunc(container, "answer"))
	api.POST("/hangup", controllers.HandleCallFunc(container, "hangup"))

	// 通话记录路由
	api.GET("/call-records", controllers.HandleRecordFunc(container, "getCallRecords"))
	api.GET("/merged-call-records", controllers.HandleRecordFunc(container, "getMergedCallRecords"))
	api.POST("/sync-records", controllers.HandleRecordFunc(container, "syncRecords"))
	api.POST("/clear-history", controllers.HandleRecordFunc(container, "clearHistory"))
}
