package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/mgo"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/gocrud/ioc/configure/internal/named"
)

// DefaultName 默认客户端名称
const DefaultName = named.Default

// Options MongoDB 客户端配置选项
type Options struct {
	Name        string
	Uri         string
	Username    string
	Password    string
	MaxPoolSize uint64
	MinPoolSize uint64
	Timeout     time.Duration
	// PingOnStart 启动时检查连接
	PingOnStart bool
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, uri string) *Options {
	return &Options{
		Name:        name,
		Uri:         uri,
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     10 * time.Second,
		PingOnStart: true,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("mongo client name is required")
	}
	if o.Uri == "" {
		return fmt.Errorf("mongo uri is required")
	}
	return nil
}

// connectOptions 连接参数（不含连接串）
func (o *Options) connectOptions() *options.ClientOptions {
	clientOpts := options.Client()
	if o.Username != "" || o.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: o.Username,
			Password: o.Password,
		})
	}
	if o.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(o.MinPoolSize)
	}
	if o.Timeout > 0 {
		clientOpts.SetConnectTimeout(o.Timeout)
		clientOpts.SetServerSelectionTimeout(o.Timeout)
	}
	return clientOpts
}

func (o *Options) clientOptions() *options.ClientOptions {
	return o.connectOptions().ApplyURI(o.Uri)
}

// Factory MongoDB 客户端工厂。
// 驱动客户端（*mongo.Client）在注册时创建；mgo 客户端在首次使用时创建。
type Factory struct {
	*named.Set[*mongo.Client]

	options map[string]Options
	mgo     *named.Set[*mgo.Client]
	mu      sync.Mutex
}

// NewFactory 创建客户端工厂
func NewFactory() *Factory {
	return &Factory{
		Set:     named.NewSet[*mongo.Client]("mongo client"),
		options: make(map[string]Options),
		mgo:     named.NewSet[*mgo.Client]("mgo client"),
	}
}

// Register 创建并保存客户端。驱动在后台建立连接，这里不会阻塞等待服务器。
func (f *Factory) Register(opts Options) (*mongo.Client, error) {
	client, err := mongo.Connect(opts.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client '%s': %w", opts.Name, err)
	}
	if err := f.Put(opts.Name, client); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	f.mu.Lock()
	f.options[opts.Name] = opts
	f.mu.Unlock()
	return client, nil
}

// Mgo 返回 name 对应的 mgo 客户端，首次调用时以相同的配置创建
func (f *Factory) Mgo(ctx context.Context, name string) (*mgo.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, err := f.mgo.Get(name); err == nil {
		return client, nil
	}
	opts, ok := f.options[name]
	if !ok {
		return nil, fmt.Errorf("mongo client '%s' not registered", name)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	client, err := mgo.NewClient(ctx, opts.Uri, opts.connectOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create mgo client '%s': %w", name, err)
	}
	if err := f.mgo.Put(name, client); err != nil {
		return nil, err
	}
	return client, nil
}

// MgoLen 返回已创建的 mgo 客户端数量
func (f *Factory) MgoLen() int {
	return f.mgo.Len()
}

// Close 断开全部客户端
func (f *Factory) Close(ctx context.Context) error {
	return errors.Join(
		f.mgo.Close(func(c *mgo.Client) error { return c.Disconnect(ctx) }),
		f.Set.Close(func(c *mongo.Client) error { return c.Disconnect(ctx) }),
	)
}
