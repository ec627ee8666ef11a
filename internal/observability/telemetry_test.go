package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTelemetry_Disabled(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), "tome-test", false)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
