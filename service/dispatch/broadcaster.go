/*
 * @module service/dispatch/broadcaster
 * @description 任务结果广播器,支持Kafka与Redis两种外部广播通道
 * @architecture 事件驱动架构 - 基础设施层
 * @documentReference dev_docs/task_dispatch_protocol.md
 * @stateFlow 任务终态响应 -> 序列化 -> 发布到外部通道
 * @rules 广播失败不影响任务响应的返回,仅记录日志
 * @dependencies github.com/segmentio/kafka-go, github.com/go-redis/redis/v8
 * @refs service/dispatch/dispatcher.go
 */

package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"dataquality-service/service/models"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// ResultBroadcaster 任务结果广播器接口
type ResultBroadcaster interface {
	Broadcast(ctx context.Context, envelope *models.TaskEnvelope) error
	Close() error
}

// === Kafka 广播器 ===

// KafkaBroadcaster 通过Kafka主题广播任务结果
type KafkaBroadcaster struct {
	writer *kafka.Writer
}

// NewKafkaBroadcaster 创建Kafka广播器
// 地址与主题从 KAFKA_BROKERS / KAFKA_TOPIC 环境变量读取
func NewKafkaBroadcaster() *KafkaBroadcaster {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "localhost:9092"
	}
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "quality-assessments"
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaBroadcaster{writer: writer}
}

// Broadcast 将任务响应信封发布到Kafka主题
func (b *KafkaBroadcaster) Broadcast(ctx context.Context, envelope *models.TaskEnvelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("序列化任务响应失败: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(envelope.CorrelationID),
		Value: data,
	}
	if err := b.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("发布Kafka消息失败: %w", err)
	}

	return nil
}

// Close 关闭Kafka写入器
func (b *KafkaBroadcaster) Close() error {
	return b.writer.Close()
}

// === Redis 广播器 ===

// RedisBroadcaster 通过Redis发布订阅通道广播任务结果
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
}

// NewRedisBroadcaster 创建Redis广播器
// 地址与通道从 REDIS_ADDR / REDIS_CHANNEL 环境变量读取
func NewRedisBroadcaster() *RedisBroadcaster {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	channel := os.Getenv("REDIS_CHANNEL")
	if channel == "" {
		channel = "quality:results"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	return &RedisBroadcaster{client: client, channel: channel}
}

// Broadcast 将任务响应信封发布到Redis通道
func (b *RedisBroadcaster) Broadcast(ctx context.Context, envelope *models.TaskEnvelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("序列化任务响应失败: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("发布Redis消息失败: %w", err)
	}

	return nil
}

// Close 关闭Redis客户端
func (b *RedisBroadcaster) Close() error {
	return b.client.Close()
}
