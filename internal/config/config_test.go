package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestTimeout(t *testing.T) {
	viper.Set("REQ_TIMEOUT", "")
	timeout := GetRequestTimeout()
	assert.Equal(t, timeout, defaultRequestTimeout)

	viper.Set("REQ_TIMEOUT", "14s")
	timeout = GetRequestTimeout()
	assert.Equal(t, timeout, 14*time.Second)
}

func TestNodeEndpoint(t *testing.T) {
	viper.Set("NODE_ENDPOINT", "")
	assert.Equal(t, defaultNodeEndpoint, GetNodeEndpoint())

	viper.Set("NODE_ENDPOINT", "ws://localhost:9944")
	assert.Equal(t, "ws://localhost:9944", GetNodeEndpoint())
	viper.Set("NODE_ENDPOINT", "")
}

func TestPort(t *testing.T) {
	viper.Set("PORT", "9090")
	assert.Equal(t, ":9090", GetPort())
	viper.Set("PORT", "")
}
