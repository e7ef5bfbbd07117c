package cron

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Recounter 按分析表重新统计各账户的 analyses_count
type Recounter interface {
	RecountAll(ctx context.Context) (int64, error)
}

type Service struct {
	recounter Recounter
	interval  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewService(recounter Recounter, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{
		recounter: recounter,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	s.wg.Add(1)
	go s.runRecount()
	log.Info().Dur("interval", s.interval).Msg("cron service started (analyses recount)")
}

// Stop 停止定时任务并等待当前一轮结束
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	log.Info().Msg("cron service stopped")
}

func (s *Service) runRecount() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if _, err := s.RunNow(context.Background()); err != nil {
				log.Error().Err(err).Msg("analyses recount failed")
			}
		}
	}
}

// RunNow 立即执行一次统计校正（用于测试或手动触发）
func (s *Service) RunNow(ctx context.Context) (int64, error) {
	n, err := s.recounter.RecountAll(ctx)
	if err != nil {
		return 0, err
	}
	log.Info().Int64("profiles", n).Msg("analyses recount completed")
	return n, nil
}
