package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

// groupConfig tunes the consumer group for tracking events. A carrier
// status change published while the consumer is down still has to
// advance the order, so the group starts from the oldest retained
// offset instead of the newest.
func groupConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_6_0_0
	cfg.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRange
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Group.Session.Timeout = 30 * time.Second
	cfg.Net.DialTimeout = 10 * time.Second
	return cfg
}

func NewGroup(brokers []string, groupID string) (sarama.ConsumerGroup, error) {
	return sarama.NewConsumerGroup(brokers, groupID, groupConfig())
}
