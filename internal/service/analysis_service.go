package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/qs3c/datawarfare_server/config"
	"github.com/qs3c/datawarfare_server/internal/generator"
	"github.com/qs3c/datawarfare_server/internal/model"
	"github.com/qs3c/datawarfare_server/internal/model/dto"
	"github.com/qs3c/datawarfare_server/internal/pkg/pubsub"
	"github.com/qs3c/datawarfare_server/internal/report"
	"github.com/qs3c/datawarfare_server/internal/repository"
)

var (
	ErrNeedsAuth          = errors.New("authentication required")
	ErrQuotaExhausted     = errors.New("analysis quota exhausted")
	ErrInvalidURL         = errors.New("invalid target url")
	ErrNetwork            = errors.New("generation service unreachable")
	ErrServer             = errors.New("generation service failed")
	ErrAnalysisNotFound   = errors.New("analysis not found")
	ErrPublishUnavailable = errors.New("report publishing is not configured")
)

// Warning 不影响结果返回的记账失败
type Warning string

const (
	WarningPersistence Warning = "persistence"
	WarningQuotaUpdate Warning = "quota_update"
)

const (
	defaultHistoryLimit = 10
	statsDays           = 30
	dayLayout           = "2006-01-02"
)

// Outcome 一次分析的结果，Cached 表示直接复用了已有记录
type Outcome struct {
	AnalysisID string
	TargetURL  string
	Raw        string
	Report     string
	Cached     bool
	Warnings   []Warning
}

// ReportGenerator 外部报告生成服务
type ReportGenerator interface {
	Generate(ctx context.Context, accountID, targetURL string) (string, error)
}

// ReportUploader 把格式化后的报告发布到对象存储
type ReportUploader interface {
	UploadReport(analysisID, markdown string) (string, error)
}

type AnalysisService struct {
	analysisRepo *repository.AnalysisRepository
	profileRepo  *repository.ProfileRepository
	generator    ReportGenerator
	formatter    *report.Formatter
	publisher    *pubsub.Publisher
	uploader     ReportUploader
	cfg          *config.Config
	now          func() time.Time
}

func NewAnalysisService(
	analysisRepo *repository.AnalysisRepository,
	profileRepo *repository.ProfileRepository,
	generator ReportGenerator,
	publisher *pubsub.Publisher,
	uploader ReportUploader,
	cfg *config.Config,
) *AnalysisService {
	return &AnalysisService{
		analysisRepo: analysisRepo,
		profileRepo:  profileRepo,
		generator:    generator,
		formatter:    report.NewFormatter(cfg.Report.Assembly),
		publisher:    publisher,
		uploader:     uploader,
		cfg:          cfg,
		now:          time.Now,
	}
}

// ParseTargetURL 去掉首尾空白后要求带 scheme 和 host 的绝对 URL
func ParseTargetURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidURL
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidURL
	}
	return trimmed, nil
}

// RunAnalysis 依次检查登录、额度、URL 和缓存，未命中时调用生成服务并记账
// 调用方取消 ctx 只影响响应，生成与记账会继续完成
func (s *AnalysisService) RunAnalysis(ctx context.Context, session *Session, rawURL string) (*Outcome, error) {
	if !session.Authenticated() {
		return nil, ErrNeedsAuth
	}
	if session.Remaining() <= 0 {
		return nil, ErrQuotaExhausted
	}

	targetURL, err := ParseTargetURL(rawURL)
	if err != nil {
		return nil, err
	}

	userID := session.AccountID()
	logger := log.With().Str("user_id", userID).Str("target_url", targetURL).Logger()
	work := context.WithoutCancel(ctx)

	s.progress(work, userID, targetURL, pubsub.StepCheckingCache, "")
	cached, err := s.analysisRepo.FindByUserAndURL(work, userID, targetURL)
	switch {
	case err == nil:
		logger.Info().Str("analysis_id", cached.ID).Msg("analysis cache hit")
		s.progress(work, userID, targetURL, pubsub.StepDone, "")
		return &Outcome{
			AnalysisID: cached.ID,
			TargetURL:  targetURL,
			Raw:        cached.ResultJSON,
			Report:     s.formatter.FormatFor(cached.ResultJSON, targetURL),
			Cached:     true,
		}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		// 缓存查询失败时按未命中处理
		logger.Warn().Err(err).Msg("analysis cache lookup failed")
	}

	// 请求在生成前已被放弃时不再产生费用
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.progress(work, userID, targetURL, pubsub.StepGenerating, "")
	raw, err := s.generator.Generate(work, userID, targetURL)
	if err != nil {
		logger.Error().Err(err).Msg("report generation failed")
		s.progress(work, userID, targetURL, pubsub.StepFailed, err.Error())
		return nil, classifyGenerationError(err)
	}

	s.progress(work, userID, targetURL, pubsub.StepPersisting, "")
	outcome := &Outcome{
		TargetURL: targetURL,
		Raw:       raw,
		Report:    s.formatter.FormatFor(raw, targetURL),
	}

	analysis := &model.Analysis{UserID: userID, TargetURL: targetURL, ResultJSON: raw}
	err = s.analysisRepo.CreateWithDebit(work, analysis)
	switch {
	case err == nil:
		outcome.AnalysisID = analysis.ID
	case errors.Is(err, repository.ErrInsufficientQuota):
		// 并发请求已耗尽额度
		logger.Warn().Msg("quota exhausted before persisting analysis")
		s.progress(work, userID, targetURL, pubsub.StepFailed, ErrQuotaExhausted.Error())
		return nil, ErrQuotaExhausted
	default:
		logger.Warn().Err(err).Msg("atomic persist failed, falling back to separate writes")
		outcome.Warnings, err = s.persistSeparately(work, analysis, &logger)
		if err != nil {
			logger.Warn().Msg("quota exhausted before persisting analysis")
			s.progress(work, userID, targetURL, pubsub.StepFailed, ErrQuotaExhausted.Error())
			return nil, ErrQuotaExhausted
		}
		outcome.AnalysisID = analysis.ID
		if lo.Contains(outcome.Warnings, WarningPersistence) {
			outcome.AnalysisID = ""
		}
	}

	if err := session.Refresh(work); err != nil {
		logger.Warn().Err(err).Msg("session refresh failed")
	}

	if outcome.AnalysisID != "" {
		s.notify(work, userID, pubsub.TableAnalyses, pubsub.EventInsert, outcome.AnalysisID)
	}
	s.notify(work, userID, pubsub.TableProfiles, pubsub.EventUpdate, userID)
	s.progress(work, userID, targetURL, pubsub.StepDone, "")

	logger.Info().
		Str("analysis_id", outcome.AnalysisID).
		Strs("warnings", lo.Map(outcome.Warnings, func(w Warning, _ int) string { return string(w) })).
		Msg("analysis completed")
	return outcome, nil
}

// persistSeparately 先扣减额度再写入记录，其他失败只记为警告
// 额度已耗尽时返回 ErrInsufficientQuota 且不写入记录，与原子路径一致
func (s *AnalysisService) persistSeparately(ctx context.Context, analysis *model.Analysis, logger *zerolog.Logger) ([]Warning, error) {
	var warnings []Warning

	err := s.profileRepo.Debit(ctx, analysis.UserID)
	switch {
	case errors.Is(err, repository.ErrInsufficientQuota):
		return nil, err
	case err != nil:
		logger.Error().Err(err).Msg("quota debit failed")
		warnings = append(warnings, WarningQuotaUpdate)
	}

	if err := s.analysisRepo.Create(ctx, analysis); err != nil {
		logger.Error().Err(err).Msg("persisting analysis failed")
		warnings = append(warnings, WarningPersistence)
	}
	return warnings, nil
}

func classifyGenerationError(err error) error {
	switch {
	case errors.Is(err, generator.ErrNetwork):
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	case errors.Is(err, generator.ErrServer):
		return fmt.Errorf("%w: %w", ErrServer, err)
	default:
		return fmt.Errorf("%w: %v", ErrServer, err)
	}
}

func (s *AnalysisService) progress(ctx context.Context, userID, targetURL, step, errMsg string) {
	err := s.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
		UserID:    userID,
		TargetURL: targetURL,
		Step:      step,
		Error:     errMsg,
	})
	if err != nil {
		log.Debug().Err(err).Str("step", step).Msg("publish progress failed")
	}
}

func (s *AnalysisService) notify(ctx context.Context, userID, table, event, recordID string) {
	err := s.publisher.PublishChange(ctx, &pubsub.ChangeMessage{
		UserID:   userID,
		Table:    table,
		Event:    event,
		RecordID: recordID,
	})
	if err != nil {
		log.Warn().Err(err).Str("table", table).Str("event", event).Msg("publish change failed")
	}
}

// List 获取分析历史
func (s *AnalysisService) List(ctx context.Context, userID string, q *dto.ListAnalysesQuery) ([]*dto.AnalysisListItem, error) {
	filter := repository.AnalysisFilter{
		Search: strings.TrimSpace(q.Search),
		Limit:  q.Limit,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultHistoryLimit
	}
	switch q.Period {
	case "7days":
		filter.Since = s.now().AddDate(0, 0, -7)
	case "30days":
		filter.Since = s.now().AddDate(0, 0, -30)
	}

	analyses, err := s.analysisRepo.ListByUserID(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(analyses, func(a *model.Analysis, _ int) *dto.AnalysisListItem {
		target := a.TargetURL
		if q.Anonymize {
			target = report.AnonymizedLabel
		}
		return &dto.AnalysisListItem{
			ID:        a.ID,
			TargetURL: target,
			Summary:   report.Summary(a.ResultJSON),
			CreatedAt: a.CreatedAt.Format(timeLayout),
		}
	})
	return items, nil
}

func (s *AnalysisService) get(ctx context.Context, userID, id string) (*model.Analysis, error) {
	analysis, err := s.analysisRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	// 他人的记录按不存在处理
	if analysis.UserID != userID {
		return nil, ErrAnalysisNotFound
	}
	return analysis, nil
}

// Get 获取分析详情，附带格式化后的报告
func (s *AnalysisService) Get(ctx context.Context, userID, id string) (*dto.AnalysisDetail, error) {
	analysis, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &dto.AnalysisDetail{
		ID:        analysis.ID,
		TargetURL: analysis.TargetURL,
		Raw:       analysis.ResultJSON,
		Report:    s.formatter.FormatFor(analysis.ResultJSON, analysis.TargetURL),
		CreatedAt: analysis.CreatedAt.Format(timeLayout),
	}, nil
}

// Delete 删除分析并重新统计使用次数，剩余额度不退还
func (s *AnalysisService) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.analysisRepo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAnalysisNotFound
	}

	if err := s.profileRepo.Recount(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("recount after delete failed")
	}
	s.notify(ctx, userID, pubsub.TableAnalyses, pubsub.EventDelete, id)
	s.notify(ctx, userID, pubsub.TableProfiles, pubsub.EventUpdate, userID)
	return nil
}

// Export 导出格式化后的 markdown，返回下载文件名和内容
func (s *AnalysisService) Export(ctx context.Context, userID, id string) (string, string, error) {
	analysis, err := s.get(ctx, userID, id)
	if err != nil {
		return "", "", err
	}
	name := report.Topic(analysis.TargetURL)
	if name == "" {
		name = "rapport"
	}
	filename := fmt.Sprintf("data-warfare-%s-%s.md", name, analysis.CreatedAt.Format(dayLayout))
	return filename, s.formatter.FormatFor(analysis.ResultJSON, analysis.TargetURL), nil
}

// Publish 把格式化后的报告上传到对象存储并返回访问地址
func (s *AnalysisService) Publish(ctx context.Context, userID, id string) (string, error) {
	if s.uploader == nil {
		return "", ErrPublishUnavailable
	}
	analysis, err := s.get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return s.uploader.UploadReport(analysis.ID, s.formatter.FormatFor(analysis.ResultJSON, analysis.TargetURL))
}

// Stats 最近 30 天每天的分析数量及总数
func (s *AnalysisService) Stats(ctx context.Context, userID string) (*dto.StatsResponse, error) {
	total, err := s.analysisRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	since := s.now().AddDate(0, 0, -statsDays)
	times, err := s.analysisRepo.ListCreatedAt(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	counts := lo.CountValuesBy(times, func(t time.Time) string { return t.Format(dayLayout) })
	days := lo.Keys(counts)
	sort.Strings(days)
	daily := lo.Map(days, func(d string, _ int) dto.DailyCount {
		return dto.DailyCount{Date: d, Count: int64(counts[d])}
	})

	resp := &dto.StatsResponse{Total: total, Daily: daily}
	if profile, err := s.profileRepo.GetByID(ctx, userID); err == nil {
		resp.Quota = QuotaOf(profile)
	}
	return resp, nil
}
