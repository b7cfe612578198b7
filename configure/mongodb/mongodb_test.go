package mongodb_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gocrud/mgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/configure/mongodb"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

func TestConfigureBindsClients(t *testing.T) {
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(
		core.WithConfiguration(func(b *config.ConfigurationBuilder) {
			b.AddInMemory(map[string]any{"mongo": map[string]any{"uri": "mongodb://localhost:27017"}})
		}),
		mongodb.Configure(func(b *mongodb.Builder) {
			b.AddFromConfig(mongodb.DefaultName, "mongo:uri", func(o *mongodb.Options) {
				o.PingOnStart = false
			})
			b.Add("archive", "mongodb://localhost:27018", func(o *mongodb.Options) {
				o.PingOnStart = false
			})
		}),
	))

	ctx, _, err := rt.Build()
	require.NoError(t, err)

	def, err := di.Resolve[*mongo.Client](ctx)
	require.NoError(t, err)
	named, err := di.Resolve[*mongo.Client](ctx, di.Named(mongodb.DefaultName))
	require.NoError(t, err)
	assert.Same(t, def, named)

	archive, err := di.Resolve[*mongo.Client](ctx, di.Named("archive"))
	require.NoError(t, err)
	assert.NotSame(t, def, archive)

	assert.True(t, ctx.Contains(di.RefOf[*mgo.Client]()))
	assert.True(t, ctx.Contains(di.RefOf[*mgo.Client]().With(di.Named(mongodb.DefaultName))))
	assert.True(t, ctx.Contains(di.RefOf[*mgo.Client]().With(di.Named("archive"))))
	assert.False(t, ctx.Contains(di.RefOf[*mgo.Client]().With(di.Named("missing"))))

	factory, err := di.Resolve[*mongodb.Factory](ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, factory.MgoLen(), "mgo 客户端在首次解析前不会创建")

	_, err = factory.Mgo(context.Background(), "missing")
	assert.ErrorContains(t, err, "not registered")

	require.NoError(t, rt.Lifecycle.Start(context.Background()))
	require.NoError(t, rt.Lifecycle.Stop(context.Background(), logging.Discard()))
}

func TestBuilderErrors(t *testing.T) {
	_, _, err := mongodb.NewBuilder(nil).
		Add("a", "", nil).
		Add("b", "mongodb://localhost", nil).
		Add("b", "mongodb://localhost", nil).
		Build(logging.Discard())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "uri is required")
	assert.Contains(t, err.Error(), "already configured")
}

func TestPingOnStart(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(mongodb.Configure(func(b *mongodb.Builder) {
		b.Add(mongodb.DefaultName, uri, func(o *mongodb.Options) { o.Timeout = 2 * time.Second })
	})))
	require.NoError(t, rt.Lifecycle.Start(context.Background()))
	require.NoError(t, rt.Lifecycle.Stop(context.Background(), logging.Discard()))
}

func TestMgoClientIsCreatedOnce(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(mongodb.Configure(func(b *mongodb.Builder) {
		b.Add("main", uri, func(o *mongodb.Options) { o.Timeout = 2 * time.Second })
	})))
	ctx, _, err := rt.Build()
	require.NoError(t, err)

	first, err := di.Resolve[*mgo.Client](ctx, di.Named("main"))
	require.NoError(t, err)
	second, err := di.Resolve[*mgo.Client](ctx, di.Named("main"))
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = di.Resolve[*mgo.Client](ctx)
	assert.ErrorIs(t, err, di.ErrNotBound, "只有 default 以无限定符形式绑定")

	require.NoError(t, rt.Lifecycle.Stop(context.Background(), logging.Discard()))
}
