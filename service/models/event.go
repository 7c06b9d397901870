/*
 * @module service/models/event
 * @description 事件推送相关模型定义,包括SSE事件与连接记录
 * @architecture 事件驱动架构 - 数据模型层
 * @documentReference dev_docs/task_dispatch_protocol.md
 * @stateFlow 事件生产 -> 事件分发 -> 客户端推送
 * @rules 确保事件的可靠传递,队列满时跳过而不阻塞
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/event/
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SSE事件类型
const (
	SSEEventTypeTaskProgress     = "task_progress"
	SSEEventTypeTaskResponse     = "task_response"
	SSEEventTypeAssessmentResult = "assessment_result"
)

// SSEEvent SSE事件模型
type SSEEvent struct {
	ID        string     `gorm:"type:uuid;primary_key" json:"id"`
	EventType string     `gorm:"not null" json:"event_type"` // task_progress, task_response, assessment_result
	UserName  string     `gorm:"not null;index" json:"user_name"`
	Data      JSONB      `gorm:"type:jsonb;not null" json:"data"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	Sent      bool       `gorm:"not null;default:false" json:"sent"`
	SentAt    *time.Time `json:"sent_at"`
}

// BeforeCreate 创建前钩子
func (s *SSEEvent) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// SSEConnection SSE连接记录模型
type SSEConnection struct {
	ID           string    `gorm:"type:uuid;primary_key" json:"id"`
	UserName     string    `gorm:"not null;index" json:"user_name"`
	ConnectionID string    `gorm:"not null;uniqueIndex" json:"connection_id"`
	ClientIP     string    `json:"client_ip"`
	ConnectedAt  time.Time `json:"connected_at"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
}

// BeforeCreate 创建前钩子
func (s *SSEConnection) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
