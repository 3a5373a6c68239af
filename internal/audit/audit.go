package audit

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/repositories"
	"github.com/frikords/server/pkg/logger"
	"github.com/frikords/server/pkg/mq"
)

// Entry is the wire form of an audit event on the Kafka topic.
type Entry struct {
	Level   string `json:"level"`
	Source  string `json:"source"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	IP      string `json:"ip,omitempty"`
	UserID  *uint  `json:"user_id,omitempty"`
}

// Recorder appends moderation and security events to the audit log.
// With a Kafka producer the write is asynchronous through the topic;
// without one it degrades to a direct database insert.
type Recorder struct {
	producer *mq.KafkaProducer // nil means degraded mode
	logRepo  *repositories.LogRepository
	logger   *logger.Logger
}

func NewRecorder(producer *mq.KafkaProducer, logRepo *repositories.LogRepository, log *logger.Logger) *Recorder {
	return &Recorder{
		producer: producer,
		logRepo:  logRepo,
		logger:   log,
	}
}

// Record appends one entry. Failures are logged, never surfaced:
// auditing must not fail the operation being audited.
func (r *Recorder) Record(entry Entry) {
	if entry.Level == "" {
		entry.Level = models.LogLevelInfo
	}

	if r.producer != nil {
		key := entry.Source
		if entry.UserID != nil {
			key = fmt.Sprintf("%s:%d", entry.Source, *entry.UserID)
		}
		if err := r.producer.SendMessage(key, entry); err == nil {
			return
		} else {
			r.logger.Warn("audit produce failed, falling back to direct write", zap.Error(err))
		}
	}

	row := &models.ErrorLog{
		Level:   entry.Level,
		Source:  entry.Source,
		Message: entry.Message,
		Details: entry.Details,
		IP:      entry.IP,
		UserID:  entry.UserID,
	}
	if err := r.logRepo.Create(row); err != nil {
		r.logger.Error("audit write failed", zap.Error(err))
	}
}
