package redis_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/configure/redis"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// SessionStore 依赖名为 cache 的客户端
type SessionStore struct {
	Cache *goredis.Client
}

func NewSessionStore(cache *goredis.Client) *SessionStore {
	return &SessionStore{Cache: cache}
}

var sessionStoreSpec = di.Class[SessionStore]().
	InjectConstructor(NewSessionStore, di.RefOf[*goredis.Client]().With(di.Named("cache"))).
	Spec()

func TestConfigureBindsClients(t *testing.T) {
	rt := core.NewRuntime()
	err := rt.Apply(
		redis.Configure(func(b *redis.Builder) {
			b.AddClient("cache", func(o *redis.ClientOptions) {
				o.Addr = "localhost:6390"
				o.DB = 2
			})
			b.AddClient(redis.DefaultName, nil)
		}),
		core.WithServices(func(r *di.Registry) error {
			return r.Bind(di.RefOf[*SessionStore](), sessionStoreSpec)
		}),
	)
	require.NoError(t, err)

	ctx, _, err := rt.Build()
	require.NoError(t, err)

	store, err := di.Resolve[*SessionStore](ctx)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6390", store.Cache.Options().Addr)
	assert.Equal(t, 2, store.Cache.Options().DB)

	def, err := di.Resolve[*goredis.Client](ctx)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", def.Options().Addr)

	require.NoError(t, rt.Lifecycle.Stop(context.Background(), logging.Discard()))
}

func TestPingOnStartFailsWithoutServer(t *testing.T) {
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(redis.Configure(func(b *redis.Builder) {
		b.AddClient("down", func(o *redis.ClientOptions) {
			o.Addr = "127.0.0.1:1"
			o.DialTimeout = 200 * time.Millisecond
			o.MaxRetries = -1
		})
	})))

	err := rt.Lifecycle.Start(context.Background())
	assert.ErrorContains(t, err, "failed to connect to redis 'down'")
	require.NoError(t, rt.Lifecycle.Stop(context.Background(), logging.Discard()))
}

func TestAddFromConfig(t *testing.T) {
	cfg, err := config.NewConfigurationBuilder().AddInMemory(map[string]any{
		"redis": map[string]any{
			"cache": map[string]any{"addr": "cache:6379", "db": 1},
			"queue": map[string]any{"addr": "queue:6379", "pool_size": 20},
		},
	}).Build()
	require.NoError(t, err)

	factory, _, err := redis.NewBuilder(cfg).AddFromConfig("redis").Build(logging.Discard())
	require.NoError(t, err)
	defer factory.Close()

	assert.Equal(t, []string{"cache", "queue"}, factory.Names())

	queue, err := factory.Get("queue")
	require.NoError(t, err)
	assert.Equal(t, 20, queue.Options().PoolSize)
	assert.Equal(t, 3, queue.Options().MaxRetries, "未配置的字段保留默认值")
}

func TestBuilderRejectsInvalidOptions(t *testing.T) {
	_, _, err := redis.NewBuilder(nil).
		AddClient("", nil).
		AddClient("a", func(o *redis.ClientOptions) { o.Addr = "" }).
		AddClient("b", nil).
		AddClient("b", nil).
		Build(logging.Discard())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "address is required")
	assert.Contains(t, err.Error(), "already configured")
}
