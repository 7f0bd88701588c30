package middlewares

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"

	"github.com/AnitBishwas/swiss-event-handler/internal/model"
)

// WebhookVerification checks the commerce platform's HMAC-SHA256
// signature over the raw body before a webhook handler runs. The body
// is restored for downstream decoding.
func WebhookVerification(secret []byte, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		verifyFunc := func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				log.LogAttrs(r.Context(),
					slog.LevelError,
					"failed to read webhook body",
					slog.Any(model.KeyLoggerError, err),
				)
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			header := r.Header.Get(model.HeaderShopifyHmac)
			if header == "" || !validSignature(body, header, secret) {
				log.LogAttrs(r.Context(),
					slog.LevelError,
					"webhook signature mismatch",
					slog.String("topic", r.Header.Get(model.HeaderShopifyTopic)),
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(verifyFunc)
	}
}

func validSignature(body []byte, header string, secret []byte) bool {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	want := mac.Sum(nil)

	got, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}
