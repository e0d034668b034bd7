package container

import (
	"context"
	"sync"
	"time"

	"github.com/yoona333/TelephoneSystem/config"
	"github.com/yoona333/TelephoneSystem/services"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	config    *config.Config
	startTime time.Time

	// 基础服务
	redisService     *services.RedisService
	broadcastService services.InterfaceBroadcastService

	// 业务服务
	recordStoreService services.InterfaceRecordStoreService
	callService        services.InterfaceCallService
	syncService        services.InterfaceSyncService

	// 传输层服务
	wsService         *services.WebSocketService
	mqttBridgeService services.InterfaceMQTTBridgeService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(cfg *config.Config) *ServiceContainer {
	if cfg == nil {
		panic("配置为空")
	}

	container := &ServiceContainer{
		config:    cfg,
		startTime: time.Now(),
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化Redis服务（可选）
	c.redisService = services.NewRedisService(c.config)
	if c.redisService != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.redisService.Client.Ping(ctx).Err(); err != nil {
			config.Warning("Redis连接测试失败: %v，将不使用Redis快照", err)
			c.redisService = nil
		}
	}

	// 初始化广播服务
	c.broadcastService = services.NewBroadcastService()

	// 初始化记录存储与业务服务
	c.recordStoreService = services.NewRecordStoreService(c.config, c.broadcastService, c.redisService)
	c.callService = services.NewCallService(c.recordStoreService, c.broadcastService)
	c.syncService = services.NewSyncService(c.recordStoreService, c.broadcastService)

	// 初始化推送通道
	c.wsService = services.NewWebSocketService(c.broadcastService)

	// 初始化MQTT事件桥（可选）
	c.mqttBridgeService = services.NewMQTTBridgeService(c.config, c.broadcastService)
	if c.mqttBridgeService != nil {
		if err := c.mqttBridgeService.Connect(); err != nil {
			config.Warning("MQTT事件桥连接失败: %v", err)
		}
	}
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "redis":
		return c.redisService
	case "broadcast":
		return c.broadcastService
	case "record_store":
		return c.recordStoreService
	case "call":
		return c.callService
	case "sync":
		return c.syncService
	case "ws":
		return c.wsService
	case "mqtt_bridge":
		return c.mqttBridgeService
	default:
		return nil
	}
}

// GetConfig 获取配置
func (c *ServiceContainer) GetConfig() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// StartTime 返回服务启动时间（用于uptime统计）
func (c *ServiceContainer) StartTime() time.Time {
	return c.startTime
}
