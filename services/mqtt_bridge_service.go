package services

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/yoona333/TelephoneSystem/config"
)

// 事件桥发布的主题前缀，完整主题为 vphone/events/<事件类型>
const topicEventPrefix = "vphone/events/"

// InterfaceMQTTBridgeService 定义MQTT事件桥接口
type InterfaceMQTTBridgeService interface {
	Connect() error
	Disconnect()
}

// MQTTBridgeService 把广播事件转发到MQTT主题
// 给非WebSocket接入方（监控面板、联调工具）一条旁路订阅通道；
// 桥接失败绝不影响触发它的HTTP请求
type MQTTBridgeService struct {
	Config         *config.Config
	Client         mqtt.Client
	IsConnected    bool
	connectedMutex sync.RWMutex // 保护IsConnected字段的读写
	PublishMutex   sync.Mutex   // 用于保护MQTT消息发布
}

// NewMQTTBridgeService 创建MQTT事件桥并订阅广播事件
// 未配置broker地址时返回nil，桥整体禁用
func NewMQTTBridgeService(cfg *config.Config, broadcaster InterfaceBroadcastService) InterfaceMQTTBridgeService {
	if cfg.MQTTBrokerURL == "" {
		return nil
	}

	service := &MQTTBridgeService{
		Config:      cfg,
		IsConnected: false,
	}
	service.setupMQTTClient()

	broadcaster.Subscribe(service.publishEvent)

	return service
}

// setupMQTTClient 设置MQTT客户端
func (s *MQTTBridgeService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s-%d", s.Config.MQTTClientID, uuid.New().String()[:8], time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(true)

	// 添加用户名和密码
	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	// 添加TLS配置，支持SSL连接
	if strings.HasPrefix(s.Config.MQTTBrokerURL, "ssl://") || strings.HasPrefix(s.Config.MQTTBrokerURL, "tls://") || s.Config.MQTTSSLEnabled {
		config.Info("[MQTT] 使用TLS连接")
		opts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: true, // 演示环境跳过证书验证
		})
	}

	// 设置连接丢失回调
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		config.Warning("[MQTT] 连接丢失: %v", err)
		s.connectedMutex.Lock()
		s.IsConnected = false
		s.connectedMutex.Unlock()
	})

	// 设置连接建立回调
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		config.Info("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()
	})

	// 设置重连回调
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		config.Info("[MQTT] 正在尝试重连...")
	})

	s.Client = mqtt.NewClient(opts)
}

// Connect 连接到MQTT服务器，带指数退避的重试机制
func (s *MQTTBridgeService) Connect() error {
	config.Info("[MQTT] 正在连接到 %s...", s.Config.MQTTBrokerURL)

	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()
	if isConnected {
		return nil
	}

	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		token := s.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			s.connectedMutex.Lock()
			s.IsConnected = true
			s.connectedMutex.Unlock()
			return nil
		}

		err = token.Error()
		backoffTime := time.Duration(1<<uint(i)) * time.Second // 指数退避: 1s, 2s, 4s, 8s, 16s
		config.Warning("[MQTT] 连接尝试 %d/%d 失败: %v, 将在 %v 后重试", i+1, maxRetries, err, backoffTime)
		time.Sleep(backoffTime)
	}

	return fmt.Errorf("[MQTT] 连接失败，已尝试 %d 次: %v", maxRetries, err)
}

// Disconnect 断开与MQTT服务器的连接
func (s *MQTTBridgeService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
}

// publishEvent 把单个广播事件发布到对应主题，QoS 1
func (s *MQTTBridgeService) publishEvent(evt Event) {
	s.connectedMutex.RLock()
	connected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()
	if !connected {
		return
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		config.Error("[MQTT] 序列化事件失败: %v", err)
		return
	}

	s.PublishMutex.Lock()
	token := s.Client.Publish(topicEventPrefix+evt.Type, 1, false, payload)
	s.PublishMutex.Unlock()

	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		config.Warning("[MQTT] 发布事件 %s 失败: %v", evt.Type, token.Error())
	}
}
