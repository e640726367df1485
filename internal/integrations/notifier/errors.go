package notifier

import "errors"

var (
	// ErrMarshal возвращается, если событие не удалось сериализовать
	ErrMarshal = errors.New("notifier: failed to marshal event")

	// ErrPublish возвращается, если брокер не принял сообщение
	ErrPublish = errors.New("notifier: failed to publish event")

	// ErrConnect возвращается, если не удалось подключиться к брокерам
	ErrConnect = errors.New("notifier: failed to connect to brokers")
)
