package sequence

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"farmavida-master/pkg/rediskey"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("sequence",
	fx.Provide(NewRedisGenerator),
)

// Generator hands out human readable codes. Codes are for display only; rows
// are keyed by snowflake or uuid ids.
type Generator interface {
	NextTenantCode(ctx context.Context) (string, error)
	NextTicketCode(ctx context.Context) (string, error)
	NextInvoiceCode(ctx context.Context) (string, error)
}

type RedisGenerator struct {
	rdb *redis.Client
	now func() time.Time
}

type Params struct {
	fx.In

	Redis *redis.Client
}

func NewRedisGenerator(p Params) Generator {
	return &RedisGenerator{
		rdb: p.Redis,
		now: time.Now,
	}
}

func (g *RedisGenerator) NextTenantCode(ctx context.Context) (string, error) {
	seq, err := g.rdb.Incr(ctx, rediskey.BuildSequenceKey("tenant")).Result()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("T%03d", seq), nil
}

func (g *RedisGenerator) NextTicketCode(ctx context.Context) (string, error) {
	return g.nextDailyCode(ctx, "TCK")
}

func (g *RedisGenerator) NextInvoiceCode(ctx context.Context) (string, error) {
	return g.nextDailyCode(ctx, "INV")
}

func (g *RedisGenerator) nextDailyCode(ctx context.Context, prefix string) (string, error) {
	now := g.now().UTC()
	today := now.Format("060102")
	key := rediskey.BuildDailySequenceKey(prefix, today)

	seq, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return "", err
	}

	if seq == 1 {
		_ = g.rdb.Expire(ctx, key, 25*time.Hour).Err()
	}

	// base36, padded to 3 characters
	encodedSeq := strings.ToUpper(fmt.Sprintf("%03s", strconv.FormatInt(seq, 36)))

	randSuffix, err := randomAlphaNumeric(2)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%s%s", prefix, today, encodedSeq, randSuffix), nil
}

func randomAlphaNumeric(n int) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		b[i] = chars[num.Int64()]
	}
	return string(b), nil
}
