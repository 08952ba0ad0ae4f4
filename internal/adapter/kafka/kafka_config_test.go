package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
)

func TestGroupConfigReplaysRetainedEvents(t *testing.T) {
	cfg := groupConfig()

	// Tracking events published during consumer downtime must still be
	// consumed, so the group cannot start at the newest offset.
	assert.Equal(t, sarama.OffsetOldest, cfg.Consumer.Offsets.Initial)
	assert.True(t, cfg.Version.IsAtLeast(sarama.V2_6_0_0))
	assert.NoError(t, cfg.Validate())
}
