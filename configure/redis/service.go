package redis

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gocrud/ioc/configure/internal/named"
)

// DefaultName 默认客户端名称
const DefaultName = named.Default

// ClientOptions Redis 客户端配置选项
type ClientOptions struct {
	Name         string        `json:"-"`
	Addr         string        `json:"addr"`     // Redis 服务器地址 (host:port)
	Password     string        `json:"password"` // 密码（可选）
	DB           int           `json:"db"`       // 数据库编号
	DialTimeout  time.Duration `json:"-"`
	ReadTimeout  time.Duration `json:"-"`
	WriteTimeout time.Duration `json:"-"`
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	MaxRetries   int           `json:"max_retries"`
	// PingOnStart 启动时检查连接，失败则启动失败
	PingOnStart bool `json:"ping_on_start"`
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *ClientOptions {
	return &ClientOptions{
		Name:         name,
		Addr:         "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		PingOnStart:  true,
	}
}

// Validate 验证配置
func (o *ClientOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("redis client name is required")
	}
	if o.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if o.DB < 0 {
		return fmt.Errorf("redis database number must be non-negative")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("redis dial timeout must be positive")
	}
	return nil
}

func (o *ClientOptions) redisOptions() *redis.Options {
	return &redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
		PoolSize:     o.PoolSize,
		MinIdleConns: o.MinIdleConns,
		MaxRetries:   o.MaxRetries,
	}
}

// Factory Redis 客户端工厂
type Factory struct {
	*named.Set[*redis.Client]
}

// NewFactory 创建客户端工厂
func NewFactory() *Factory {
	return &Factory{Set: named.NewSet[*redis.Client]("redis client")}
}

// Register 创建并保存客户端。客户端在首次使用时才建立连接。
func (f *Factory) Register(opts ClientOptions) (*redis.Client, error) {
	client := redis.NewClient(opts.redisOptions())
	if err := f.Put(opts.Name, client); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Close 关闭全部客户端
func (f *Factory) Close() error {
	return f.Set.Close(func(c *redis.Client) error { return c.Close() })
}
