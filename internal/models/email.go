package models

// EmailMessage письмо, передаваемое через очередь уведомлений воркеру отправки.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
