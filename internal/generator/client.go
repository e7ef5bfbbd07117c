package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/qs3c/datawarfare_server/config"
)

var (
	// ErrNetwork 生成服务不可达或超时
	ErrNetwork = errors.New("generation service unreachable")
	// ErrServer 生成服务返回错误状态或无法识别的响应
	ErrServer = errors.New("generation service error")
)

const (
	defaultTimeout = 120 * time.Second
	maxBodyBytes   = 8 << 20
)

type request struct {
	UserID    string `json:"user_id"`
	TargetURL string `json:"target_url"`
}

type outputItem struct {
	Output string `json:"output"`
}

type errorBody struct {
	Message string `json:"message"`
}

// ServerError 携带生成服务返回的错误信息
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generation service returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("generation service returned %d", e.Status)
}

func (e *ServerError) Unwrap() error { return ErrServer }

// Client 外部报告生成 webhook 客户端
type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(cfg *config.GeneratorConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:        cfg.WebhookURL,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Generate 请求生成服务为目标站点生成原始报告
// 调用不随 ctx 取消而中断，只受自身超时约束
func (c *Client) Generate(ctx context.Context, accountID, targetURL string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	body, err := json.Marshal(request{UserID: accountID, TargetURL: targetURL})
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return "", &ServerError{Status: resp.StatusCode, Message: strings.TrimSpace(eb.Message)}
	}

	var items []outputItem
	if err := json.Unmarshal(data, &items); err != nil {
		return "", fmt.Errorf("%w: unexpected response shape: %v", ErrServer, err)
	}
	if len(items) == 0 || strings.TrimSpace(items[0].Output) == "" {
		return "", fmt.Errorf("%w: empty output", ErrServer)
	}
	return items[0].Output, nil
}
