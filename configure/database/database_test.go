package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/configure/database"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

type User struct {
	gorm.Model
	Name string
}

// UserStore 依赖两个数据库：默认库与 reporting 库
type UserStore struct {
	DB        *gorm.DB
	Reporting *gorm.DB
}

var userStoreSpec = di.Class[UserStore]().
	InjectField("DB").
	InjectField("Reporting", di.RefOf[*gorm.DB]().With(di.Named("reporting"))).
	Spec()

func TestConfigureBindsNamedAndDefaultDatabases(t *testing.T) {
	rt := core.NewRuntime()
	err := rt.Apply(
		database.Configure(func(b *database.Builder) {
			b.Add(database.DefaultName, database.SQLite("file:db_default?mode=memory&cache=shared"), func(o *database.Options) {
				o.MaxOpenConns = 5
				o.AutoMigrate = []any{&User{}}
			})
			b.Add("reporting", database.SQLite("file:db_reporting?mode=memory&cache=shared"), nil)
		}),
		core.WithServices(func(r *di.Registry) error {
			return r.Bind(di.RefOf[*UserStore](), userStoreSpec)
		}),
	)
	require.NoError(t, err)

	ctx, _, err := rt.Build()
	require.NoError(t, err)

	store, err := di.Resolve[*UserStore](ctx)
	require.NoError(t, err)
	require.NotNil(t, store.DB)
	require.NotNil(t, store.Reporting)
	assert.NotSame(t, store.DB, store.Reporting)

	named, err := di.Resolve[*gorm.DB](ctx, di.Named(database.DefaultName))
	require.NoError(t, err)
	assert.Same(t, store.DB, named)

	sqlDB, err := store.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 5, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, store.DB.Create(&User{Name: "alice"}).Error)
	var count int64
	require.NoError(t, store.DB.Model(&User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	factory, err := di.Resolve[*database.Factory](ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "reporting"}, factory.Names())

	require.NoError(t, rt.Lifecycle.Stop(context.Background(), logging.Discard()))
	assert.Equal(t, 0, factory.Len())
}

func TestAddFromConfig(t *testing.T) {
	cfg, err := config.NewConfigurationBuilder().AddInMemory(map[string]any{
		"databases": map[string]any{
			"default": map[string]any{
				"driver":         "sqlite",
				"dsn":            "file:db_from_config?mode=memory&cache=shared",
				"max_open_conns": 3,
				"max_lifetime":   "30m",
			},
		},
	}).Build()
	require.NoError(t, err)

	factory, err := database.NewBuilder(cfg).AddFromConfig("databases", &User{}).Build(logging.Discard())
	require.NoError(t, err)
	defer factory.Close()

	db, err := factory.Get("default")
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&User{}))
}

func TestBuilderErrors(t *testing.T) {
	builder := database.NewBuilder(nil).
		Add("invalid", nil, nil).
		Add("dup", database.SQLite("file:db_dup_a?mode=memory"), nil).
		Add("dup", database.SQLite("file:db_dup_b?mode=memory"), nil)

	_, err := builder.Build(logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialector is required")
	assert.Contains(t, err.Error(), "already configured")
}

func TestUnsupportedDriver(t *testing.T) {
	cfg, err := config.NewConfigurationBuilder().AddInMemory(map[string]any{
		"databases": map[string]any{"main": map[string]any{"driver": "oracle", "dsn": "x"}},
	}).Build()
	require.NoError(t, err)

	_, err = database.NewBuilder(cfg).AddFromConfig("databases").Build(logging.Discard())
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestNoDatabasesConfigured(t *testing.T) {
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(database.Configure(nil)))
	assert.False(t, rt.Registry.Contains(di.RefOf[*database.Factory]()))
}
