// @title           Virtual Telephone System API
// @version         1.0
// @description     虚拟电话演示系统：通话生命周期控制、通话记录存储与客户端记录同步

// @host      localhost:3001
// @BasePath  /api
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yoona333/TelephoneSystem/config"
	"github.com/yoona333/TelephoneSystem/routes"
)

func main() {
	// 初始化日志配置
	if err := config.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}

	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		config.Warning("无法加载.env文件: %v", err)
		// 即使加载失败也继续执行，可能环境变量已经通过其他方式设置
	} else {
		config.Info("成功加载.env文件")
	}

	// 获取配置
	cfg := config.GetConfig()

	// 初始化路由（服务容器在其中创建）
	r := routes.SetupRouter(cfg)

	// 启动服务器
	port := cfg.ServerPort
	config.Info("服务器启动在: http://localhost:%s", port)
	if err := r.Run(":" + port); err != nil {
		config.Error("启动服务器失败: %v", err)
		os.Exit(1)
	}
}
