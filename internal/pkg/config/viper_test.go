package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 8080
otp:
  default_digits: 6
  lifespan_minute: 5
  sweep_interval_second: 60
secret:
  aes_key: QUJDREVGR0hJSktMTU5PUFFSU1RVVldYWVphYmNkZWY=
brokers:
  list: nats,kafka
  endpoints: nats:4222,kafka:9092
flags:
  enabled: true
`

func TestViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)
	defer cfg.Close()

	assert.Equal(t, uint16(8080), cfg.GetUint16("server.port"))
	assert.Equal(t, 6, cfg.GetInt("otp.default_digits"))
	assert.Equal(t, 5*time.Minute, cfg.GetMinute("otp.lifespan_minute"))
	assert.Equal(t, time.Minute, cfg.GetSecond("otp.sweep_interval_second"))
	assert.True(t, cfg.GetBool("flags.enabled"))
	assert.Len(t, cfg.GetBinary("secret.aes_key"), 32)
	assert.Equal(t, []string{"nats", "kafka"}, cfg.GetArray("brokers.list"))
	assert.Equal(t, map[string]string{"nats": "4222", "kafka": "9092"}, cfg.GetMap("brokers.endpoints"))
}

func TestViperFromBytes_MissingKeysAndErrors(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte("a: 1"))
	require.NoError(t, err)

	assert.Empty(t, cfg.GetString("nope"))
	assert.Zero(t, cfg.GetInt64("nope"))
	assert.Nil(t, cfg.GetBinary("a")) // not base64

	_, err = NewViperFromBytes("", []byte("a: 1"))
	assert.Error(t, err)

	_, err = NewViperFromBytes("yaml", []byte(":::bad"))
	assert.Error(t, err)
}
