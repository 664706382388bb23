package sender

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/billing-backoffice/internal/lib/smtp"
	"github.com/magabrotheeeer/billing-backoffice/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func suspendedEvent(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(models.UserSuspendedEvent{
		Email:      "user@example.com",
		Username:   "ivan",
		InvoiceRef: "INV-2026-03-C001",
	})
	require.NoError(t, err)
	return body
}

func TestSendUserSuspended(t *testing.T) {
	transport := new(MockTransport)
	client := new(MockSMTPClient)
	writer := new(MockSMTPWriter)

	transport.On("GetSMTPUser").Return("billing@example.com")
	transport.On("Connect").Return(client, nil).Once()
	client.On("Mail", "billing@example.com").Return(nil).Once()
	client.On("Rcpt", "user@example.com").Return(nil).Once()
	client.On("Data").Return(writer, nil).Once()
	writer.On("Write", mock.MatchedBy(func(p []byte) bool {
		msg := string(p)
		return strings.Contains(msg, "user@example.com") &&
			strings.Contains(msg, "ivan") &&
			strings.Contains(msg, "INV-2026-03-C001")
	})).Return(1, nil).Once()
	writer.On("Close").Return(nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	service := NewSenderService(transport, newNoopLogger())
	err := service.SendUserSuspended(suspendedEvent(t))
	require.NoError(t, err)

	transport.AssertExpectations(t)
	client.AssertExpectations(t)
	writer.AssertExpectations(t)
}

func TestSendUserSuspended_InvalidBody(t *testing.T) {
	transport := new(MockTransport)
	service := NewSenderService(transport, newNoopLogger())

	err := service.SendUserSuspended([]byte("not a json"))
	assert.Error(t, err)
	transport.AssertNotCalled(t, "Connect")
}

func TestSendUserSuspended_ConnectError(t *testing.T) {
	transport := new(MockTransport)
	transport.On("GetSMTPUser").Return("billing@example.com")
	transport.On("Connect").Return(nil, errors.New("connection refused")).Once()

	service := NewSenderService(transport, newNoopLogger())
	err := service.SendUserSuspended(suspendedEvent(t))
	assert.Error(t, err)
}
