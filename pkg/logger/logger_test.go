package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proyecto-fct/backend/config"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger(&config.LogConfig{Level: "verbose", Format: "console"})
	assert.Error(t, err)
}

func TestNamed_NilLogger(t *testing.T) {
	assert.NotNil(t, Named(nil, "kanban"))
}
