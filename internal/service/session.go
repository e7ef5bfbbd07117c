package service

import (
	"context"
	"errors"
	"sync"

	"github.com/qs3c/datawarfare_server/config"
	"github.com/qs3c/datawarfare_server/internal/model"
	"github.com/qs3c/datawarfare_server/internal/model/dto"
	"github.com/qs3c/datawarfare_server/internal/repository"
)

// ErrSessionAnonymous 匿名会话不能刷新
var ErrSessionAnonymous = errors.New("session has no authenticated account")

// Session 一次请求内的账户上下文，持有档案快照
// 零值和 nil 都表示未登录
type Session struct {
	accountID string
	email     string
	repo      *repository.ProfileRepository

	mu      sync.RWMutex
	profile *model.Profile
}

// Anonymous 返回未登录会话
func Anonymous() *Session {
	return &Session{}
}

// Authenticated 是否已登录且档案已加载
func (s *Session) Authenticated() bool {
	if s == nil || s.accountID == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile != nil
}

func (s *Session) AccountID() string {
	if s == nil {
		return ""
	}
	return s.accountID
}

func (s *Session) Email() string {
	if s == nil {
		return ""
	}
	return s.email
}

// Profile 返回档案快照的副本
func (s *Session) Profile() *model.Profile {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Remaining 剩余分析次数，未登录为 0
func (s *Session) Remaining() int {
	if p := s.Profile(); p != nil {
		return p.AnalysesRemaining
	}
	return 0
}

// Refresh 从存储重新加载档案
func (s *Session) Refresh(ctx context.Context) error {
	if s == nil || s.accountID == "" || s.repo == nil {
		return ErrSessionAnonymous
	}
	profile, err := s.repo.GetByID(ctx, s.accountID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
	return nil
}

// Info 转为返回给前端的档案信息
func (s *Session) Info() *dto.ProfileInfo {
	return toProfileInfo(s.Profile())
}

// SessionProvider 根据身份平台的账户 ID 加载会话
type SessionProvider struct {
	profileRepo *repository.ProfileRepository
	cfg         *config.Config
}

func NewSessionProvider(profileRepo *repository.ProfileRepository, cfg *config.Config) *SessionProvider {
	return &SessionProvider{
		profileRepo: profileRepo,
		cfg:         cfg,
	}
}

// Load 加载会话，首次使用的账户按免费套餐建档
// accountID 为空时返回匿名会话
func (p *SessionProvider) Load(ctx context.Context, accountID, email string) (*Session, error) {
	if accountID == "" {
		return Anonymous(), nil
	}

	profile, err := p.profileRepo.FirstOrCreate(ctx, &model.Profile{
		ID:                accountID,
		Email:             email,
		Plan:              config.PlanFree,
		AnalysesRemaining: p.cfg.Plan(config.PlanFree).Analyses,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		accountID: accountID,
		email:     email,
		repo:      p.profileRepo,
		profile:   profile,
	}, nil
}

func toProfileInfo(p *model.Profile) *dto.ProfileInfo {
	if p == nil {
		return nil
	}
	return &dto.ProfileInfo{
		ID:                p.ID,
		Email:             p.Email,
		Plan:              p.Plan,
		AnalysesCount:     p.AnalysesCount,
		AnalysesRemaining: p.AnalysesRemaining,
		CreatedAt:         p.CreatedAt.Format(timeLayout),
		UpdatedAt:         p.UpdatedAt.Format(timeLayout),
	}
}
