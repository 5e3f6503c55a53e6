package nats

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"

	"github.com/oculusai/console/internal/pkg/logutil"
)

func TestNeedsUpdate(t *testing.T) {
	base := nats.StreamConfig{
		Name:        SessionEventsStream,
		MaxAge:      7 * 24 * time.Hour,
		MaxMsgs:     100000,
		MaxBytes:    1024,
		Compression: nats.S2Compression,
	}

	assert.False(t, needsUpdate(base, base))

	changed := base
	changed.MaxAge = 24 * time.Hour
	assert.True(t, needsUpdate(base, changed))

	changed = base
	changed.Compression = nats.NoCompression
	assert.True(t, needsUpdate(base, changed))
}

func TestAdapterWithoutConnection(t *testing.T) {
	a := &Adapter{logger: logutil.NewNopLogger()}

	assert.Error(t, a.Ping())
	status := a.Status()
	assert.Equal(t, false, status["connected"])
	assert.Equal(t, "nats", status["backend"])
}
