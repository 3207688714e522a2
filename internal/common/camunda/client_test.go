package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"shopping-assistant/internal/common/config"
	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"NOT_FOUND: process not found", false},
		{"permission denied", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(fmt.Errorf("%s", tt.msg)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		code apperrors.ErrorCode
	}{
		{"connection refused", "EXTERNAL_SERVICE_ERROR"},
		{"deadline exceeded", "TIMEOUT_ERROR"},
		{"process not found", "RESOURCE_NOT_FOUND"},
		{"unauthorized", "AUTHENTICATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := mapZeebeError(fmt.Errorf("%s", tt.msg), "deploy", 2)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
			assert.Contains(t, apperrors.Normalize(err).Details, "after 2 attempts")
		})
	}
}

func TestWithRetry(t *testing.T) {
	retry := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), retry, "topology", func(context.Context) error {
			calls++
			if calls < 3 {
				return fmt.Errorf("unavailable")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), retry, "topology", func(context.Context) error {
			calls++
			return fmt.Errorf("process not found")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, apperrors.ErrorCode("RESOURCE_NOT_FOUND"), apperrors.CodeOf(err))
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), retry, "topology", func(context.Context) error {
			calls++
			return fmt.Errorf("connection refused")
		})
		assert.Equal(t, 4, calls)
		assert.Equal(t, apperrors.ErrorCode("EXTERNAL_SERVICE_ERROR"), apperrors.CodeOf(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := &RetryConfig{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
		err := withRetry(ctx, slow, "topology", func(context.Context) error {
			return fmt.Errorf("unavailable")
		})
		assert.Equal(t, apperrors.ErrorCode("TIMEOUT_ERROR"), apperrors.CodeOf(err))
	})
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", RequestTimeout: 5000})
	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cfg.RetryConfig)

	cfg = ConfigFrom(config.CamundaConfig{})
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestCheckVariables_PassesValidJobs(t *testing.T) {
	var seen []string
	check := func(taskType, variables string) error {
		seen = append(seen, taskType+":"+variables)
		return nil
	}
	called := false
	handler := CheckVariables("rank-products", check, func(_ worker.JobClient, job entities.Job) {
		called = true
		assert.Equal(t, `{"products":[]}`, job.Variables)
	}, logger.NewNoOpLogger())

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Variables: `{"products":[]}`}}
	handler(nil, job)

	assert.True(t, called)
	assert.Equal(t, []string{`rank-products:{"products":[]}`}, seen)
}
