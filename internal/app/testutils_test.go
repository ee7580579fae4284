package app

import (
	"bytes"
	"encoding/json"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/minhlq-dev/cinebook/api"
	"github.com/minhlq-dev/cinebook/internal/mailer"
	"github.com/minhlq-dev/cinebook/internal/notifier"
	"github.com/minhlq-dev/cinebook/internal/seathold"
	"github.com/minhlq-dev/cinebook/internal/token"
	"github.com/minhlq-dev/cinebook/internal/validator"
)

func newTestApplication(opts ...func(*application)) *application {
	app := &application{
		validator:      validator.NewValidator(),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		mailer:         mailer.NewMockMailer(),
		notifier:       notifier.NewMockNotifier(),
		sessionManager: scs.New(),
		tokens:         token.NewSigner("test-secret"),
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

func newTestCoordinator(store seathold.LeaseStore) *seathold.Coordinator {
	return seathold.NewCoordinator(store, 10*time.Minute)
}

func setupTestSession(t *testing.T, app *application, r *http.Request, userId int, role string) *http.Request {
	t.Helper()

	ctx, err := app.sessionManager.Load(r.Context(), "session")
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}

	app.sessionManager.Put(ctx, SessionKeyUserId.String(), userId)
	if role != "" {
		app.sessionManager.Put(ctx, SessionKeyRole.String(), role)
	}

	// Committing mints the session token; handlers key seat leases on it.
	if _, _, err := app.sessionManager.Commit(ctx); err != nil {
		t.Fatalf("Failed to commit session: %v", err)
	}

	// Handlers run without the auth middleware in tests, so the context
	// value it would set is injected here.
	ctx = context.WithValue(ctx, SessionKeyUserId, userId)

	return r.WithContext(ctx)
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantErrMessage string) {
	t.Helper()

	if wantStatus >= 200 && wantStatus < 300 {
		return
	}

	switch wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", wantErrMessage)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if wantErrMessage != "" && errorResp.Message != wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, wantErrMessage)
		}
	}
}

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}

	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func ptr[T any](v T) *T {
	return &v
}
