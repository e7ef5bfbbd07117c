package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	ChannelAnalysesChanges  = "analyses_changes"
	ChannelAnalysisProgress = "analysis_progress"
)

// 消息类型
const (
	TypeChange   = "db_change"
	TypeProgress = "analysis_progress"
)

// 变更涉及的表与事件
const (
	TableAnalyses = "analyses"
	TableProfiles = "profiles"

	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// ChangeMessage 按用户过滤的数据变更通知
type ChangeMessage struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	Table    string `json:"table"`
	Event    string `json:"event"`
	RecordID string `json:"record_id"`
}

// ProgressMessage 分析流程的阶段进度
type ProgressMessage struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	TargetURL string `json:"target_url"`
	Step      string `json:"step"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// 进度阶段常量
const (
	StepValidating    = "validating"
	StepCheckingCache = "checking_cache"
	StepGenerating    = "generating"
	StepPersisting    = "persisting"
	StepDone          = "done"
	StepFailed        = "failed"
)

// 阶段对应的进度百分比
var StepProgress = map[string]int{
	StepValidating:    10,
	StepCheckingCache: 25,
	StepGenerating:    50,
	StepPersisting:    85,
	StepDone:          100,
}

// 阶段对应的消息
var StepMessages = map[string]string{
	StepValidating:    "Vérification de votre demande",
	StepCheckingCache: "Recherche d'une analyse existante",
	StepGenerating:    "Analyse du site concurrent en cours",
	StepPersisting:    "Enregistrement du rapport",
	StepDone:          "Analyse terminée",
	StepFailed:        "L'analyse a échoué",
}

// Publisher Redis 发布者，nil 时所有发布操作为空操作
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者，client 为 nil 时返回 nil
func NewPublisher(client *redis.Client) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{client: client}
}

// PublishChange 发布数据变更
func (p *Publisher) PublishChange(ctx context.Context, msg *ChangeMessage) error {
	if p == nil {
		return nil
	}
	msg.Type = TypeChange
	return p.publish(ctx, ChannelAnalysesChanges, msg)
}

// PublishProgress 发布进度消息
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	if p == nil {
		return nil
	}
	msg.Type = TypeProgress

	// 自动填充进度和消息
	if msg.Progress == 0 && msg.Step != "" {
		if progress, ok := StepProgress[msg.Step]; ok {
			msg.Progress = progress
		}
	}
	if msg.Message == "" && msg.Step != "" {
		if message, ok := StepMessages[msg.Step]; ok {
			msg.Message = message
		}
	}

	return p.publish(ctx, ChannelAnalysisProgress, msg)
}

func (p *Publisher) publish(ctx context.Context, channel string, msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", channel, err)
	}
	return p.client.Publish(ctx, channel, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Handler 收到消息后按 userID 投递原始负载
type Handler func(userID string, payload []byte)

// Subscribe 订阅变更和进度两个频道，阻塞直到 ctx 取消
func (s *Subscriber) Subscribe(ctx context.Context, handler Handler) error {
	ps := s.client.Subscribe(ctx, ChannelAnalysesChanges, ChannelAnalysisProgress)
	defer ps.Close()

	// 等待订阅确认，避免之后发布的消息丢失
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var head struct {
				UserID string `json:"user_id"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &head); err != nil || head.UserID == "" {
				log.Warn().Str("channel", msg.Channel).Msg("dropping malformed pubsub message")
				continue
			}

			handler(head.UserID, []byte(msg.Payload))
		}
	}
}
