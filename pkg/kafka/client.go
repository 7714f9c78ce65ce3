// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"uvlhub/internal/config"
	"uvlhub/pkg/database"
	"uvlhub/pkg/log"
	"uvlhub/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// 单个任务最多处理的次数，超过后提交 offset 放弃重试。
const maxAttempts = 3

// TaskProcessor 由能够处理同步任务的组件实现，使消费者与具体流程解耦。
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.DatasetSyncTask) error
}

var producer *kafka.Writer

func brokerList(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(brokerList(cfg.Brokers)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// Producer 将同步任务写入 Kafka，实现 service.SyncQueue。
type Producer struct{}

// Enqueue 发送一个数据集同步任务。
func (Producer) Enqueue(ctx context.Context, task tasks.DatasetSyncTask) error {
	if producer == nil {
		return errors.New("kafka producer not initialized")
	}
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.Key()),
		Value: taskBytes,
	})
}

// CloseProducer 关闭生产者，刷新未发送的消息。
func CloseProducer() {
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
}

// StartConsumer 启动一个 Kafka 消费者处理同步任务，ctx 取消后退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokerList(cfg.Brokers),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)

		var task tasks.DatasetSyncTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			commit(r, m)
			continue
		}

		log.Infof("开始处理同步任务: DatasetID=%d, UserID=%d", task.DatasetID, task.UserID)
		if err := processor.Process(ctx, task); err != nil {
			log.Errorf("处理同步任务失败: DatasetID=%d, Error: %v", task.DatasetID, err)
			if giveUp(ctx, task) {
				log.Errorf("同步任务多次失败(>=%d)，提交 offset 终止重试: DatasetID=%d", maxAttempts, task.DatasetID)
				commit(r, m)
			}
			continue
		}

		log.Infof("同步任务处理成功: DatasetID=%d", task.DatasetID)
		if database.RDB != nil {
			_ = database.RDB.Del(ctx, attemptsKey(task)).Err()
		}
		commit(r, m)
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

func attemptsKey(task tasks.DatasetSyncTask) string {
	return fmt.Sprintf("kafka:attempts:%s", task.Key())
}

// giveUp 使用 Redis 计数失败次数；未启用 Redis 时不重试。
func giveUp(ctx context.Context, task tasks.DatasetSyncTask) bool {
	if database.RDB == nil {
		return true
	}
	key := attemptsKey(task)
	attempts, err := database.RDB.Incr(ctx, key).Result()
	if err != nil {
		// Redis 异常时不提交 offset，让 Kafka 重试
		return false
	}
	_ = database.RDB.Expire(ctx, key, 24*time.Hour).Err()
	return attempts >= maxAttempts
}

func commit(r *kafka.Reader, m kafka.Message) {
	if err := r.CommitMessages(context.Background(), m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
