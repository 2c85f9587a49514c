package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/farm-backend/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/farm-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/farm-backend/internal/models"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Dial(ctx context.Context) (smtp.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) From() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	return m.Called().Error(0)
}

func (m *MockSMTPClient) Quit() error {
	return m.Called().Error(0)
}

// bufferWriter собирает текст письма.
type bufferWriter struct {
	bytes.Buffer
	closeErr error
}

func (w *bufferWriter) Close() error { return w.closeErr }

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestPublisher_Send(t *testing.T) {
	ch := new(MockChannel)
	ch.On("Publish", rabbitmq.NotificationsExchange, rabbitmq.EmailRoutingKey, false, false,
		mock.MatchedBy(func(p amqp.Publishing) bool {
			var msg models.EmailMessage
			if err := json.Unmarshal(p.Body, &msg); err != nil {
				return false
			}
			return p.DeliveryMode == amqp.Persistent && p.Type == rabbitmq.EmailMessageType && p.MessageId != "" &&
				msg == models.EmailMessage{To: "a@x.com", Subject: "subj", Body: "body"}
		})).Return(nil).Once()

	p := NewPublisher(ch, newNoopLogger())
	require.NoError(t, p.Send(context.Background(), "a@x.com", "subj", "body"))
	ch.AssertExpectations(t)
}

func TestPublisher_Send_Errors(t *testing.T) {
	t.Run("broker failure", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(amqp.ErrClosed)

		err := NewPublisher(ch, newNoopLogger()).Send(context.Background(), "a@x.com", "s", "b")
		require.Error(t, err)
		assert.ErrorIs(t, err, amqp.ErrClosed)
	})

	t.Run("canceled context", func(t *testing.T) {
		ch := new(MockChannel)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewPublisher(ch, newNoopLogger()).Send(ctx, "a@x.com", "s", "b")
		require.ErrorIs(t, err, context.Canceled)
		ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSMTPSender_Send(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(tr *MockTransport, c *MockSMTPClient, w *bufferWriter)
		expectedError bool
	}{
		{
			name: "success",
			setupMocks: func(tr *MockTransport, c *MockSMTPClient, w *bufferWriter) {
				tr.On("Dial", mock.Anything).Return(c, nil).Once()
				c.On("Mail", "noreply@example.com").Return(nil).Once()
				c.On("Rcpt", "a@x.com").Return(nil).Once()
				c.On("Data").Return(w, nil).Once()
				c.On("Quit").Return(nil).Once()
				c.On("Close").Return(nil).Once()
			},
		},
		{
			name: "connect error",
			setupMocks: func(tr *MockTransport, _ *MockSMTPClient, _ *bufferWriter) {
				tr.On("Dial", mock.Anything).Return(nil, errors.New("dial failed")).Once()
			},
			expectedError: true,
		},
		{
			name: "rcpt error",
			setupMocks: func(tr *MockTransport, c *MockSMTPClient, _ *bufferWriter) {
				tr.On("Dial", mock.Anything).Return(c, nil).Once()
				c.On("Mail", "noreply@example.com").Return(nil).Once()
				c.On("Rcpt", "a@x.com").Return(errors.New("550 no such user")).Once()
				c.On("Close").Return(nil).Once()
			},
			expectedError: true,
		},
		{
			name: "data close error",
			setupMocks: func(tr *MockTransport, c *MockSMTPClient, w *bufferWriter) {
				w.closeErr = errors.New("452 insufficient storage")
				tr.On("Dial", mock.Anything).Return(c, nil).Once()
				c.On("Mail", "noreply@example.com").Return(nil).Once()
				c.On("Rcpt", "a@x.com").Return(nil).Once()
				c.On("Data").Return(w, nil).Once()
				c.On("Close").Return(nil).Once()
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := new(MockTransport)
			c := new(MockSMTPClient)
			w := &bufferWriter{}
			tr.On("From").Return("noreply@example.com")
			tt.setupMocks(tr, c, w)

			sender := NewSMTPSender(tr, newNoopLogger())
			err := sender.Send(context.Background(), "a@x.com", "Код для восстановления пароля", "Ваш код: 12345678")
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				msg := w.String()
				assert.Contains(t, msg, "From: noreply@example.com\r\n")
				assert.Contains(t, msg, "To: a@x.com\r\n")
				assert.Contains(t, msg, "Subject: =?utf-8?q?")
				assert.True(t, strings.HasSuffix(msg, "\r\n\r\nВаш код: 12345678"))
			}
			tr.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}

func TestLogSender_Send(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	require.NoError(t, NewLogSender(log).Send(context.Background(), "a@x.com", "subj", "secret code 12345678"))
	assert.Contains(t, buf.String(), "a@x.com")
	assert.NotContains(t, buf.String(), "12345678")
}

func TestWorker_HandleEmail(t *testing.T) {
	valid, err := json.Marshal(models.EmailMessage{To: "a@x.com", Subject: "s", Body: "b"})
	require.NoError(t, err)
	noRecipient, err := json.Marshal(models.EmailMessage{Subject: "s", Body: "b"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    []byte
		sendErr error
		send    bool
		wantErr bool
	}{
		{name: "delivered", body: valid, send: true},
		{name: "delivery failure is retried", body: valid, send: true, sendErr: errors.New("smtp down"), wantErr: true},
		{name: "malformed json is dropped", body: []byte("{not json")},
		{name: "missing recipient is dropped", body: noRecipient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := new(MockSender)
			if tt.send {
				sender.On("Send", mock.MatchedBy(func(ctx context.Context) bool {
					_, ok := ctx.Deadline()
					return ok
				}), "a@x.com", "s", "b").Return(tt.sendErr).Once()
			}

			err := NewWorker(sender, newNoopLogger(), time.Second).HandleEmail(tt.body)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			sender.AssertExpectations(t)
			if !tt.send {
				sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
