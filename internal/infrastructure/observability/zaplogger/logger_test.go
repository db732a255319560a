package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := New(zap.New(core), observability.F("service", "inventory-bridge"))

	child := log.With(observability.F("use_case", "inventory.list_items"))
	child.Info("use_case_done", observability.F("outcome", "success"))
	child.Warn("native_call_failed", observability.F("error", errors.New("boom")))
	log.Debug("debug_line")

	entries := logs.All()
	require.Len(t, entries, 3)

	first := entries[0].ContextMap()
	assert.Equal(t, "use_case_done", entries[0].Message)
	assert.Equal(t, "inventory-bridge", first["service"])
	assert.Equal(t, "inventory.list_items", first["use_case"])
	assert.Equal(t, "success", first["outcome"])

	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])

	_, bound := entries[2].ContextMap()["use_case"]
	assert.False(t, bound)
}

func TestNew_NilBase(t *testing.T) {
	log := New(nil)
	assert.NotPanics(t, func() { log.Error("dropped") })
}
