package application

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
	"github.com/wyfcoding/exchangegateway/pkg/logger"
	"github.com/wyfcoding/exchangegateway/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// marketSnapshot 一次加载得到的只读市场表，整体替换，从不原地修改
type marketSnapshot struct {
	bySymbol map[string]*domain.Market
	byID     map[string]*domain.Market
	list     []*domain.Market
}

func newMarketSnapshot(markets []*domain.Market) *marketSnapshot {
	s := &marketSnapshot{
		bySymbol: make(map[string]*domain.Market, len(markets)),
		byID:     make(map[string]*domain.Market, len(markets)),
		list:     make([]*domain.Market, 0, len(markets)),
	}
	for _, m := range markets {
		if m == nil || m.ID == "" || m.Symbol == "" {
			continue
		}
		s.bySymbol[m.Symbol] = m
		s.byID[m.ID] = m
		s.list = append(s.list, m)
	}
	slices.SortFunc(s.list, func(a, b *domain.Market) int {
		return strings.Compare(a.Symbol, b.Symbol)
	})
	return s
}

// MarketService 市场缓存
// 首次查询触发加载，并发的加载请求共享同一次网络往返；加载完成后只读，直到显式 Reload
type MarketService struct {
	source  domain.MarketSource
	repo    domain.MarketRepository
	metrics *metrics.Metrics

	snapshot   atomic.Pointer[marketSnapshot]
	currencies atomic.Pointer[[]*domain.Currency]
	group      singleflight.Group
}

var _ domain.MarketLookup = (*MarketService)(nil)

// NewMarketService repo 可以为 nil，此时不做预热也不回写快照
func NewMarketService(source domain.MarketSource, repo domain.MarketRepository, m *metrics.Metrics) *MarketService {
	return &MarketService{source: source, repo: repo, metrics: m}
}

// Market 按统一符号查询
func (s *MarketService) Market(ctx context.Context, symbol string) (*domain.Market, error) {
	snap, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	if m, ok := snap.bySymbol[symbol]; ok {
		return m, nil
	}
	return nil, domain.NewError(domain.KindBadSymbol, "", fmt.Sprintf("unknown symbol %q", symbol))
}

// MarketByID 按交易所市场 ID 查询
func (s *MarketService) MarketByID(ctx context.Context, id string) (*domain.Market, error) {
	snap, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	if m, ok := snap.byID[id]; ok {
		return m, nil
	}
	return nil, domain.NewError(domain.KindBadSymbol, "", fmt.Sprintf("unknown market id %q", id))
}

// Markets 返回按符号排序的全部市场
func (s *MarketService) Markets(ctx context.Context) ([]*domain.Market, error) {
	snap, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.list), nil
}

// Loaded 缓存是否已就绪
func (s *MarketService) Loaded() bool {
	return s.snapshot.Load() != nil
}

// Reload 强制从交易所重新拉取，成功后整体替换快照
// 失败时保留旧快照
func (s *MarketService) Reload(ctx context.Context) ([]*domain.Market, error) {
	snap, err := s.load(ctx, true)
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.list), nil
}

// Currencies 币种列表，首次调用时拉取
func (s *MarketService) Currencies(ctx context.Context) ([]*domain.Currency, error) {
	if cur := s.currencies.Load(); cur != nil {
		return *cur, nil
	}
	v, err := s.share(ctx, "currencies", func(ctx context.Context) (any, error) {
		if cur := s.currencies.Load(); cur != nil {
			return *cur, nil
		}
		list, err := s.source.FetchCurrencies(ctx)
		if err != nil {
			return nil, err
		}
		s.currencies.Store(&list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Currency), nil
}

func (s *MarketService) ensure(ctx context.Context) (*marketSnapshot, error) {
	if snap := s.snapshot.Load(); snap != nil {
		return snap, nil
	}
	return s.load(ctx, false)
}

func (s *MarketService) load(ctx context.Context, reload bool) (*marketSnapshot, error) {
	key := "load"
	if reload {
		key = "reload"
	}
	v, err := s.share(ctx, key, func(ctx context.Context) (any, error) {
		if !reload {
			if snap := s.snapshot.Load(); snap != nil {
				return snap, nil
			}
			if snap := s.warmStart(ctx); snap != nil {
				return snap, nil
			}
		}
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*marketSnapshot), nil
}

// share 共享同一次加载；加载本身不受单个调用方取消的影响，调用方可以提前返回
func (s *MarketService) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, domain.WrapError(domain.KindNetworkError, "market load interrupted", ctx.Err())
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (s *MarketService) warmStart(ctx context.Context) *marketSnapshot {
	if s.repo == nil {
		return nil
	}
	markets, err := s.repo.LoadAll(ctx)
	if err != nil {
		logger.Warn(ctx, "market snapshot warm start failed", "error", err)
		s.metrics.RecordMarketLoad("redis", "error", 0)
		return nil
	}
	if len(markets) == 0 {
		return nil
	}
	snap := newMarketSnapshot(markets)
	s.snapshot.Store(snap)
	s.metrics.RecordMarketLoad("redis", "ok", len(snap.list))
	logger.Info(ctx, "markets restored from snapshot", "count", len(snap.list))
	return snap
}

func (s *MarketService) fetch(ctx context.Context) (*marketSnapshot, error) {
	start := time.Now()
	markets, err := s.source.FetchMarkets(ctx)
	if err != nil {
		s.metrics.RecordMarketLoad("venue", "error", 0)
		logger.Error(ctx, "load markets failed", "error", err)
		return nil, err
	}
	snap := newMarketSnapshot(markets)
	s.snapshot.Store(snap)
	s.metrics.RecordMarketLoad("venue", "ok", len(snap.list))
	logger.Info(ctx, "markets loaded", "count", len(snap.list), "duration", time.Since(start))

	if s.repo != nil {
		if err := s.repo.SaveAll(ctx, snap.list); err != nil {
			logger.Warn(ctx, "save market snapshot failed", "error", err)
		}
	}
	return snap, nil
}
