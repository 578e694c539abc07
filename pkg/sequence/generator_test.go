package sequence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T) (*RedisGenerator, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	g := NewRedisGenerator(Params{Redis: rdb}).(*RedisGenerator)
	g.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	return g, mr
}

func TestNextTenantCode(t *testing.T) {
	g, _ := newTestGenerator(t)
	ctx := context.Background()

	first, err := g.NextTenantCode(ctx)
	require.NoError(t, err)
	require.Equal(t, "T001", first)

	second, err := g.NextTenantCode(ctx)
	require.NoError(t, err)
	require.Equal(t, "T002", second)
}

func TestNextTicketCode(t *testing.T) {
	g, mr := newTestGenerator(t)

	code, err := g.NextTicketCode(context.Background())
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^TCK-260309-001[A-Z2-9]{2}$`), code)
	require.True(t, mr.Exists("seq:TCK:260309"))
	require.Greater(t, mr.TTL("seq:TCK:260309"), time.Duration(0))
}
