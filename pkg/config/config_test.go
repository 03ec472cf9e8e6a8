package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 50, cfg.Scheduler.PopulationSize)
	assert.Equal(t, 100, cfg.Scheduler.Generations)
	assert.InDelta(t, 0.1, cfg.Scheduler.MutationRate, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "tga:", cfg.Redis.KeyPrefix)
	assert.Equal(t, time.Hour, cfg.Jobs.ResultTTL)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_GENERATIONS", "250")
	t.Setenv("SCHEDULER_TIMEOUT", "2m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.edu, ,https://b.example.edu")
	t.Setenv("TIMETABLE_CACHE_TTL", "not-a-duration")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, 250, cfg.Scheduler.Generations)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.Timeout)
	assert.Equal(t, []string{"https://a.example.edu", "https://b.example.edu"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
}
