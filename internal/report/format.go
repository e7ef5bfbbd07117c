package report

import (
	"net/url"
	"strings"
	"time"
)

// Formatter 把生成服务的原始输出整理成结构化报告
type Formatter struct {
	Policy Policy
	Now    func() time.Time
}

// NewFormatter 创建格式化器，未知策略按 interpolate 处理
func NewFormatter(policy string) *Formatter {
	p := Policy(policy)
	if p != PolicyEditorial {
		p = PolicyInterpolate
	}
	return &Formatter{Policy: p, Now: time.Now}
}

// Format 格式化原始报告，永不失败
func (f *Formatter) Format(raw string) string {
	return f.FormatFor(raw, "")
}

// FormatFor 格式化原始报告，副标题使用目标站点的域名
func (f *Formatter) FormatFor(raw, targetURL string) string {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return Assemble(Extract(raw), f.Policy, Topic(targetURL), now())
}

// Format 使用默认策略格式化
func Format(raw string) string {
	return NewFormatter(string(PolicyInterpolate)).Format(raw)
}

// Topic 从目标 URL 中取出用于标题的域名
func Topic(targetURL string) string {
	if targetURL == "" {
		return ""
	}
	u, err := url.Parse(targetURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
