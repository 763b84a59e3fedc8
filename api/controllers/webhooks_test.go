package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
)

type stubWebhookService struct {
	authErr    error
	processErr error

	authBody      []byte
	authSignature string
	processed     int
}

func (s *stubWebhookService) Authenticate(body []byte, signature string) error {
	s.authBody = body
	s.authSignature = signature
	return s.authErr
}

func (s *stubWebhookService) Process(ctx context.Context, body []byte) error {
	s.processed++
	return s.processErr
}

func webhookTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestPaystackWebhookRejectsBadSignatureBeforeProcessing(t *testing.T) {
	svc := &stubWebhookService{authErr: pkgerrors.New(pkgerrors.CodeSignature, "webhook signature mismatch")}
	handler := PaystackWebhook(svc, webhookTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", strings.NewReader(`{"event":"charge.success"}`))
	req.Header.Set("X-Paystack-Signature", "bad")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.processed)
	assert.Equal(t, "bad", svc.authSignature)
}

func TestPaystackWebhookAcknowledgesValidDeliveries(t *testing.T) {
	svc := &stubWebhookService{}
	handler := PaystackWebhook(svc, webhookTestLogger())

	body := `{"event":"charge.success","data":{"reference":"PAY-ABC-INV-1"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", strings.NewReader(body))
	req.Header.Set("X-Paystack-Signature", "good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.processed)
	assert.Equal(t, []byte(body), svc.authBody)

	var envelope struct {
		Data map[string]bool `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data["received"])
}

func TestPaystackWebhookAcknowledgesDespiteProcessingFailure(t *testing.T) {
	// once the signature checks out the gateway must not redeliver, so
	// processing errors are swallowed after logging
	svc := &stubWebhookService{processErr: errors.New("invoice lookup failed")}
	handler := PaystackWebhook(svc, webhookTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", strings.NewReader(`{"event":"charge.failed"}`))
	req.Header.Set("X-Paystack-Signature", "good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.processed)
}
