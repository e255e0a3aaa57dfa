package redis

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
	"github.com/wyfcoding/exchangegateway/pkg/logger"
)

const defaultMarketTTL = 6 * time.Hour

// marketRedisRepository 市场快照存为一个 hash，field 为市场 ID
type marketRedisRepository struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewMarketRedisRepository 创建市场快照仓储，ttl <= 0 时使用默认 6 小时
func NewMarketRedisRepository(client redis.UniversalClient, ttl time.Duration) domain.MarketRepository {
	if ttl <= 0 {
		ttl = defaultMarketTTL
	}
	return &marketRedisRepository{
		client: client,
		key:    "connectivity:markets",
		ttl:    ttl,
	}
}

// SaveAll 整体替换快照：先删除旧 hash，再写入并设置过期时间
func (r *marketRedisRepository) SaveAll(ctx context.Context, markets []*domain.Market) error {
	if len(markets) == 0 {
		return nil
	}
	fields, err := encodeMarkets(markets)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key)
	pipe.HSet(ctx, r.key, fields)
	pipe.Expire(ctx, r.key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save markets failed: %w", err)
	}
	logger.Debug(ctx, "market snapshot saved", "count", len(markets), "ttl", r.ttl)
	return nil
}

// LoadAll 读取快照，不存在时返回空切片
func (r *marketRedisRepository) LoadAll(ctx context.Context) ([]*domain.Market, error) {
	data, err := r.client.HGetAll(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load markets failed: %w", err)
	}
	return decodeMarkets(data)
}

func encodeMarkets(markets []*domain.Market) (map[string]any, error) {
	fields := make(map[string]any, len(markets))
	for _, m := range markets {
		if m == nil || m.ID == "" {
			continue
		}
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("marshal market %s failed: %w", m.ID, err)
		}
		fields[m.ID] = string(data)
	}
	return fields, nil
}

// decodeMarkets 按 ID 排序，保证加载顺序稳定
func decodeMarkets(data map[string]string) ([]*domain.Market, error) {
	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]*domain.Market, 0, len(ids))
	for _, id := range ids {
		var m domain.Market
		if err := json.Unmarshal([]byte(data[id]), &m); err != nil {
			return nil, fmt.Errorf("unmarshal market %s failed: %w", id, err)
		}
		out = append(out, &m)
	}
	return out, nil
}
