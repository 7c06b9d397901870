/*
 * @module service/event/event_service
 * @description 事件推送服务,管理SSE客户端连接,提供单播与广播推送,并监听评估记录落库事件
 * @architecture 事件驱动架构 - 业务服务层
 * @documentReference dev_docs/task_dispatch_protocol.md
 * @stateFlow 连接建立 -> 事件产生 -> 单播/广播分发 -> 客户端推送
 * @rules 单播与广播是相互独立的通道;客户端事件队列满时跳过发送而不阻塞
 * @dependencies gorm.io/gorm, github.com/lib/pq
 * @refs service/dispatch/, service/models/
 */

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"dataquality-service/service/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// getEnvWithDefault 获取环境变量,如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Service 事件推送服务
type Service struct {
	db          *gorm.DB
	connections map[string]map[string]*SSEClient // userName -> connectionID -> client
	mu          sync.RWMutex
	dbListener  *pq.Listener
	ctx         context.Context
	cancel      context.CancelFunc
}

// SSEClient SSE客户端连接
type SSEClient struct {
	ID       string
	UserName string
	Channel  chan *models.SSEEvent
	Done     chan bool
	ClientIP string
}

// NewService 创建事件推送服务实例
// 仅在 PostgreSQL 环境下启动评估记录的数据库变更监听
func NewService(db *gorm.DB) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	service := &Service{
		db:          db,
		connections: make(map[string]map[string]*SSEClient),
		ctx:         ctx,
		cancel:      cancel,
	}

	if db.Dialector.Name() == "postgres" {
		go service.startAssessmentListener()
	}

	return service
}

// AddConnection 添加SSE连接
func (s *Service) AddConnection(userName, connectionID, clientIP string) *SSEClient {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connections[userName] == nil {
		s.connections[userName] = make(map[string]*SSEClient)
	}

	client := &SSEClient{
		ID:       connectionID,
		UserName: userName,
		Channel:  make(chan *models.SSEEvent, 100), // 缓冲100个事件
		Done:     make(chan bool),
		ClientIP: clientIP,
	}
	s.connections[userName][connectionID] = client

	connection := &models.SSEConnection{
		UserName:     userName,
		ConnectionID: connectionID,
		ClientIP:     clientIP,
		ConnectedAt:  time.Now(),
		IsActive:     true,
	}
	s.db.Create(connection)

	log.Printf("SSE连接已建立: 用户=%s, 连接ID=%s, IP=%s", userName, connectionID, clientIP)
	return client
}

// RemoveConnection 移除SSE连接
func (s *Service) RemoveConnection(userName, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userConnections, exists := s.connections[userName]; exists {
		if client, exists := userConnections[connectionID]; exists {
			close(client.Done)
			delete(userConnections, connectionID)

			if len(userConnections) == 0 {
				delete(s.connections, userName)
			}

			s.db.Model(&models.SSEConnection{}).
				Where("connection_id = ?", connectionID).
				Update("is_active", false)

			log.Printf("SSE连接已断开: 用户=%s, 连接ID=%s", userName, connectionID)
		}
	}
}

// SendEventToUser 向指定用户的全部连接单播事件
func (s *Service) SendEventToUser(userName string, event *models.SSEEvent) error {
	s.mu.RLock()
	userConnections, exists := s.connections[userName]
	s.mu.RUnlock()

	if err := s.db.Create(event).Error; err != nil {
		log.Printf("保存SSE事件失败: %v", err)
	}

	if !exists {
		return fmt.Errorf("用户 %s 没有活跃的SSE连接", userName)
	}

	for _, client := range userConnections {
		select {
		case client.Channel <- event:
		default:
			log.Printf("用户 %s 的连接 %s 事件队列已满,跳过发送", userName, client.ID)
		}
	}

	return nil
}

// BroadcastEvent 向所有连接广播事件
func (s *Service) BroadcastEvent(event *models.SSEEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.db.Create(event).Error; err != nil {
		log.Printf("保存广播事件失败: %v", err)
	}

	for userName, userConnections := range s.connections {
		for _, client := range userConnections {
			eventCopy := *event
			eventCopy.UserName = userName

			select {
			case client.Channel <- &eventCopy:
			default:
				log.Printf("用户 %s 的连接 %s 事件队列已满,跳过广播", userName, client.ID)
			}
		}
	}

	return nil
}

// Stop 停止事件服务
func (s *Service) Stop() {
	s.cancel()

	if s.dbListener != nil {
		s.dbListener.Close()
	}

	s.mu.Lock()
	for _, userConnections := range s.connections {
		for _, client := range userConnections {
			close(client.Done)
		}
	}
	s.connections = make(map[string]map[string]*SSEClient)
	s.mu.Unlock()

	log.Println("事件服务已停止")
}

// === 评估记录变更监听 ===

// startAssessmentListener 监听评估记录落库通知并广播
func (s *Service) startAssessmentListener() {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")

		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	if err := s.ensureAssessmentTrigger(); err != nil {
		log.Printf("创建评估记录触发器失败: %v", err)
		return
	}

	s.dbListener = pq.NewListener(connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("PostgreSQL监听器事件: %v, 错误: %v", ev, err)
		}
	})

	if err := s.dbListener.Listen("quality_assessment_changes"); err != nil {
		log.Printf("监听评估记录通知失败: %v", err)
		return
	}

	log.Println("评估记录监听器已启动")

	for {
		select {
		case notification := <-s.dbListener.Notify:
			if notification != nil {
				s.handleAssessmentNotification(notification)
			}
		case <-s.ctx.Done():
			log.Println("评估记录监听器已停止")
			return
		}
	}
}

// handleAssessmentNotification 将评估记录落库通知广播给所有连接
func (s *Service) handleAssessmentNotification(notification *pq.Notification) {
	var changeData models.JSONB
	if err := json.Unmarshal([]byte(notification.Extra), &changeData); err != nil {
		log.Printf("解析评估记录通知失败: %v", err)
		return
	}

	event := &models.SSEEvent{
		EventType: models.SSEEventTypeAssessmentResult,
		UserName:  "system",
		Data:      changeData,
	}
	if err := s.BroadcastEvent(event); err != nil {
		log.Printf("广播评估记录事件失败: %v", err)
	}
}

// ensureAssessmentTrigger 确保评估记录表的通知函数与触发器存在
func (s *Service) ensureAssessmentTrigger() error {
	createFunctionSQL := `
CREATE OR REPLACE FUNCTION notify_quality_assessment_changes()
RETURNS TRIGGER AS $$
BEGIN
    PERFORM pg_notify('quality_assessment_changes', json_build_object(
        'table', TG_TABLE_NAME,
        'type', TG_OP,
        'record_id', NEW.id,
        'table_name', NEW.table_name,
        'score', NEW.score,
        'status', NEW.status,
        'timestamp', extract(epoch from now())
    )::text);
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;`

	if err := s.db.Exec(createFunctionSQL).Error; err != nil {
		return fmt.Errorf("执行创建函数SQL失败: %w", err)
	}

	createTriggerSQL := `
CREATE OR REPLACE TRIGGER quality_assessment_records_notify
AFTER INSERT ON quality_assessment_records
FOR EACH ROW
EXECUTE FUNCTION notify_quality_assessment_changes();`

	if err := s.db.Exec(createTriggerSQL).Error; err != nil {
		return fmt.Errorf("执行创建触发器SQL失败: %w", err)
	}

	return nil
}
