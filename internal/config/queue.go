package config

// QueueConfig configures the RabbitMQ publisher and the audit consumer.
// An empty URL disables both; reservations still succeed without a broker.
type QueueConfig struct {
	URL          string
	Queue        string
	AuditLogPath string
	Consume      bool
}

func LoadQueueConfig() QueueConfig {
	url := envStr("RABBITMQ_URL", envStr("AMQP_URL", ""))
	return QueueConfig{
		URL:          url,
		Queue:        envStr("RESERVATION_EVENTS_QUEUE", "reservation.events"),
		AuditLogPath: envStr("RESERVATION_AUDIT_LOG", "logs/reservations.log"),
		Consume:      envBool("RESERVATION_AUDIT_CONSUMER", true),
	}
}
