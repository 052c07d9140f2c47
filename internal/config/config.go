package config

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Vote parameters are fixed at build time: this application exists to cast
// one AYE vote on one Kusama referendum.
const (
	TargetReferendum   uint32 = 275
	DefaultConviction  uint8  = 1
	TokenDecimals      uint   = 12
	SS58KusamaPrefix   uint8  = 2
	defaultNodeEndpoint       = "wss://rpc.ibp.network/kusama"

	defaultLocalPort      = ":8077"
	defaultRequestTimeout = 10 * time.Second
)

var viperOnce sync.Once

func initViper() {
	viperOnce.Do(func() {
		viper.AutomaticEnv()
	})
}

func GetNodeEndpoint() string {
	initViper()

	endpoint := viper.GetString("NODE_ENDPOINT")
	if endpoint == "" {
		return defaultNodeEndpoint
	}

	return endpoint
}

// GetPort returns port prepended with `:`
func GetPort() string {
	initViper()

	port := viper.GetString("PORT")
	if port == "" {
		return defaultLocalPort
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return port
}

func GetRequestTimeout() time.Duration {
	initViper()

	timeout := viper.GetDuration("REQ_TIMEOUT")
	if timeout <= 0 {
		return defaultRequestTimeout
	}

	return timeout
}
