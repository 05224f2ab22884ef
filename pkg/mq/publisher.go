package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"proyecto-fct/backend/config"
	"proyecto-fct/backend/pkg/metrics"
)

// 事件路由键
const (
	RoutingNotificationCreated = "notification.created"
)

// Publisher 领域事件发布器（topic exchange，JSON 负载，持久化投递）
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher 建立连接并声明 exchange
func NewPublisher(cfg *config.MQConfig, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("打开 channel 失败: %w", err)
	}

	exchange := cfg.Exchange
	if exchange == "" {
		exchange = "fct.events"
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("声明 exchange 失败: %w", err)
	}

	logger.Info("RabbitMQ 发布器已就绪", zap.String("exchange", exchange))

	return &Publisher{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

// IsConnected 连接是否仍然可用
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.channel != nil && !p.conn.IsClosed()
}

// Publish 以 routingKey 发布一条 JSON 事件
// amqp091 的 Channel 不是并发安全的，这里串行化发布
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.IsConnected() {
		metrics.IncrementEventPublished(routingKey, "failed")
		return fmt.Errorf("RabbitMQ 连接已关闭")
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
	})
	if err != nil {
		metrics.IncrementEventPublished(routingKey, "failed")
		return fmt.Errorf("发布事件失败: %w", err)
	}

	metrics.IncrementEventPublished(routingKey, "success")
	return nil
}

// Close 关闭 channel 与连接
func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
