package consumer

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/frikords/server/internal/audit"
	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/repositories"
	"github.com/frikords/server/pkg/logger"
)

// AuditConsumer drains the audit topic into the error_logs table.
type AuditConsumer struct {
	logRepo *repositories.LogRepository
	logger  *logger.Logger
}

func NewAuditConsumer(logRepo *repositories.LogRepository, log *logger.Logger) *AuditConsumer {
	return &AuditConsumer{
		logRepo: logRepo,
		logger:  log,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (c *AuditConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim
// goroutines have exited.
func (c *AuditConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim persists each audit entry. Malformed or unwritable
// entries are logged and marked consumed; an audit backlog must never
// wedge the group.
func (c *AuditConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var entry audit.Entry
		if err := json.Unmarshal(message.Value, &entry); err != nil {
			c.logger.Warn("failed to decode audit entry", zap.Error(err))
			session.MarkMessage(message, "")
			continue
		}

		row := &models.ErrorLog{
			Level:   entry.Level,
			Source:  entry.Source,
			Message: entry.Message,
			Details: entry.Details,
			IP:      entry.IP,
			UserID:  entry.UserID,
		}
		if err := c.logRepo.Create(row); err != nil {
			c.logger.Error("failed to persist audit entry", zap.Error(err))
		}
		session.MarkMessage(message, "")
	}
	return nil
}

// StartConsumer joins the consumer group and runs until the context is
// cancelled.
func StartConsumer(ctx context.Context, brokers []string, groupID, topic string, handler *AuditConsumer, log *logger.Logger) error {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return err
	}

	go func() {
		defer group.Close()
		for {
			if err := group.Consume(ctx, []string{topic}, handler); err != nil {
				log.Error("audit consumer error", zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	return nil
}
