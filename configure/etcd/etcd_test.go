package etcd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/ioc/configure/etcd"
	"github.com/gocrud/ioc/logging"
)

func TestBuilderValidation(t *testing.T) {
	_, err := etcd.NewBuilder().
		AddClient("", nil).
		AddClient("a", func(o *etcd.ClientOptions) { o.Endpoints = nil }).
		AddClient("b", func(o *etcd.ClientOptions) { o.DialTimeout = 0 }).
		AddClient("c", nil).
		AddClient("c", nil).
		Build(logging.Discard())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "endpoints are required")
	assert.Contains(t, err.Error(), "dial timeout must be positive")
	assert.Contains(t, err.Error(), "already configured")
}

func TestEmptyBuilder(t *testing.T) {
	factory, err := etcd.NewBuilder().Build(logging.Discard())
	assert.NoError(t, err)
	assert.Nil(t, factory)
}
