package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/logging"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/market"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/metrics"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/transfer"
)

const defaultEvaluationWorkers = 8

// ProfileStore is the read contract the engine needs from the device registry.
type ProfileStore interface {
	FetchUserProfile(ctx context.Context, userID string) (domain.UserRecord, error)
	FetchUserDevices(ctx context.Context, userID string) ([]domain.DeviceRecord, error)
	FetchDevice(ctx context.Context, userID, deviceID string) (domain.DeviceRecord, error)
	ListUserIDs(ctx context.Context, offset, limit int) ([]string, error)
}

// TransferService wires the registry and the market feed into the decision engine.
type TransferService struct {
	store    ProfileStore
	market   market.Provider
	composer *transfer.Composer
	workers  int
	nowFn    func() time.Time
}

// NewTransferService constructs a TransferService. workers bounds the number of
// devices evaluated concurrently for one user; values <= 0 use the default.
func NewTransferService(store ProfileStore, provider market.Provider, workers int) *TransferService {
	if workers <= 0 {
		workers = defaultEvaluationWorkers
	}
	return &TransferService{
		store:    store,
		market:   provider,
		composer: transfer.NewComposer(),
		workers:  workers,
		nowFn:    time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *TransferService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Now returns the service clock reading.
func (s *TransferService) Now() time.Time {
	return s.nowFn()
}

// ListUsers pages through the user ids known to the registry.
func (s *TransferService) ListUsers(ctx context.Context, offset, limit int) ([]string, error) {
	return s.store.ListUserIDs(ctx, offset, limit)
}

// GenerateSuggestions evaluates every device the user owns and returns the
// ranked suggestions. Any store or market failure fails the whole request.
func (s *TransferService) GenerateSuggestions(ctx context.Context, userID string) ([]domain.TransferSuggestion, error) {
	start := time.Now()
	defer func() { metrics.RecordEvaluation("generate_suggestions", time.Since(start)) }()

	_, evaluations, err := s.evaluateUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ranked := s.rank(evaluations)
	logging.Ctx(ctx).Debug().
		Str("user_id", userID).
		Int("devices", len(evaluations)).
		Int("suggestions", len(ranked)).
		Msg("generated transfer suggestions")
	return ranked, nil
}

// Report evaluates a user and attaches a prompt and timing advice to every device.
func (s *TransferService) Report(ctx context.Context, userID string) (UserReport, error) {
	behavior, evaluations, err := s.evaluateUser(ctx, userID)
	if err != nil {
		return UserReport{}, err
	}

	now := s.nowFn()
	report := UserReport{
		UserID:      userID,
		Behavior:    behavior,
		Suggestions: s.rank(evaluations),
		Devices:     make([]DeviceReport, 0, len(evaluations)),
	}
	for _, ev := range evaluations {
		dr := DeviceReport{
			Analysis:   ev.Analysis,
			Suggestion: ev.Suggestion,
			Timing:     s.timing(ev.Analysis, ev.Market, behavior, now),
		}
		if ev.Suggestion != nil {
			pc := transfer.NewPromptContext(ev.Analysis, behavior, now)
			snapshot := ev.Market
			pc.Market = &snapshot
			prompt := s.composer.Compose(*ev.Suggestion, pc)
			dr.Prompt = &prompt
		}
		report.Devices = append(report.Devices, dr)
	}
	return report, nil
}

// EvaluateDevice runs the analyzer, profiler and selector over caller-supplied
// records. When snapshot is nil the market feed is consulted.
func (s *TransferService) EvaluateDevice(ctx context.Context, device domain.DeviceRecord, user domain.UserRecord, snapshot *domain.MarketData) (Evaluation, error) {
	analysis := transfer.AnalyzeDevice(device, s.nowFn())
	behavior := transfer.ProfileUser(user)

	data, err := s.resolveMarket(ctx, analysis.Category, snapshot)
	if err != nil {
		return Evaluation{}, err
	}
	return s.evaluate(analysis, behavior, data), nil
}

// PromptContext analyses the records and derives the time fields from the service clock.
func (s *TransferService) PromptContext(device domain.DeviceRecord, user domain.UserRecord) transfer.PromptContext {
	now := s.nowFn()
	return transfer.NewPromptContext(transfer.AnalyzeDevice(device, now), transfer.ProfileUser(user), now)
}

// ComposePrompt renders the prompt for a suggestion.
func (s *TransferService) ComposePrompt(suggestion domain.TransferSuggestion, pc transfer.PromptContext) domain.TransferPrompt {
	return s.composer.Compose(suggestion, pc)
}

// OptimizeDeviceTiming advises when to transfer a stored device.
func (s *TransferService) OptimizeDeviceTiming(ctx context.Context, userID, deviceID string) (domain.TransferTiming, error) {
	device, err := s.store.FetchDevice(ctx, userID, deviceID)
	if err != nil {
		return domain.TransferTiming{}, err
	}
	user, err := s.store.FetchUserProfile(ctx, userID)
	if err != nil {
		return domain.TransferTiming{}, err
	}
	return s.OptimizeTiming(ctx, device, user, nil)
}

// OptimizeTiming advises when to transfer a caller-supplied device.
func (s *TransferService) OptimizeTiming(ctx context.Context, device domain.DeviceRecord, user domain.UserRecord, snapshot *domain.MarketData) (domain.TransferTiming, error) {
	start := time.Now()
	defer func() { metrics.RecordEvaluation("optimize_timing", time.Since(start)) }()

	now := s.nowFn()
	analysis := transfer.AnalyzeDevice(device, now)
	data, err := s.resolveMarket(ctx, analysis.Category, snapshot)
	if err != nil {
		return domain.TransferTiming{}, err
	}
	return s.timing(analysis, data, transfer.ProfileUser(user), now), nil
}

// MarketSnapshot returns the current market data for a category.
func (s *TransferService) MarketSnapshot(ctx context.Context, category domain.Category) (domain.MarketData, error) {
	return s.resolveMarket(ctx, category, nil)
}

func (s *TransferService) evaluateUser(ctx context.Context, userID string) (domain.UserBehavior, []Evaluation, error) {
	var (
		profile domain.UserRecord
		devices []domain.DeviceRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.store.FetchUserProfile(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		devices, err = s.store.FetchUserDevices(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.UserBehavior{}, nil, fmt.Errorf("load registry data for user %s: %w", userID, err)
	}

	behavior := transfer.ProfileUser(profile)
	now := s.nowFn()

	evaluations := make([]Evaluation, len(devices))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rec := range devices {
		i, rec := i, rec
		g.Go(func() error {
			analysis := transfer.AnalyzeDevice(rec, now)
			data, err := s.resolveMarket(gctx, analysis.Category, nil)
			if err != nil {
				return fmt.Errorf("evaluate device %s: %w", rec.ID, err)
			}
			evaluations[i] = s.evaluate(analysis, behavior, data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.UserBehavior{}, nil, err
	}
	return behavior, evaluations, nil
}

func (s *TransferService) evaluate(analysis domain.DeviceAnalysis, behavior domain.UserBehavior, data domain.MarketData) Evaluation {
	ev := Evaluation{Analysis: analysis, Behavior: behavior, Market: data}
	suggestion, ok := transfer.SelectSuggestion(analysis, behavior, data)
	if !ok {
		metrics.DevicesWithoutSuggestion.Inc()
		return ev
	}
	metrics.RecordSuggestion(string(suggestion.SuggestionType))
	ev.Suggestion = &suggestion
	return ev
}

func (s *TransferService) rank(evaluations []Evaluation) []domain.TransferSuggestion {
	candidates := make([]domain.TransferSuggestion, 0, len(evaluations))
	for _, ev := range evaluations {
		if ev.Suggestion != nil {
			candidates = append(candidates, *ev.Suggestion)
		}
	}
	ranked := transfer.Rank(candidates)
	metrics.SuggestionsDiscarded.Add(float64(len(candidates) - len(ranked)))
	return ranked
}

func (s *TransferService) timing(analysis domain.DeviceAnalysis, data domain.MarketData, behavior domain.UserBehavior, now time.Time) domain.TransferTiming {
	t := transfer.OptimizeTiming(analysis, data, behavior, now)
	metrics.TimingRecommendations.WithLabelValues(string(t.Recommendation)).Inc()
	return t
}

func (s *TransferService) resolveMarket(ctx context.Context, category domain.Category, snapshot *domain.MarketData) (domain.MarketData, error) {
	if snapshot != nil {
		data := snapshot.Normalize()
		if data.Category == "" {
			data.Category = category
		}
		return data, nil
	}
	data, err := s.market.MarketData(ctx, category)
	if err != nil {
		return domain.MarketData{}, fmt.Errorf("fetch market data for %s: %w", category, err)
	}
	return data, nil
}
