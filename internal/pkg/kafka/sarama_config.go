package kafka

import (
	"CommandCenter/internal/api/config"
	"time"

	"github.com/IBM/sarama"
)

// newSaramaConfig 统一初始化 sarama.Config
func newSaramaConfig(kafkaCfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	// SyncProducer 必须开启
	c.Producer.Return.Successes = true
	c.Producer.Return.Errors = true
	c.Producer.Partitioner = sarama.NewHashPartitioner
	c.Producer.RequiredAcks = sarama.WaitForLocal
	if kafkaCfg.Producer.RequiredAcks != 0 {
		c.Producer.RequiredAcks = sarama.RequiredAcks(kafkaCfg.Producer.RequiredAcks)
	}
	if kafkaCfg.Producer.RetryMax > 0 {
		c.Producer.Retry.Max = kafkaCfg.Producer.RetryMax
	}
	if kafkaCfg.Producer.Timeout > 0 {
		c.Producer.Timeout = time.Duration(kafkaCfg.Producer.Timeout) * time.Second
	}

	return c
}
