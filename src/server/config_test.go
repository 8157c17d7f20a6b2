package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetConfig(t *testing.T) {
	t.Run("default port", func(t *testing.T) {
		assert.Equal(t, "9898", GetConfig().Port)
	})

	t.Run("port from environment", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "8080")
		assert.Equal(t, "8080", GetConfig().Port)
	})
}
