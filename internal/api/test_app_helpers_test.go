package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fertility/internal/db"
	"github.com/terraincognita07/fertility/internal/i18n"
	"github.com/terraincognita07/fertility/internal/services"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []services.Notification
}

func (sender *recordingSender) Send(_ context.Context, title string, message string) error {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.messages = append(sender.messages, services.Notification{Title: title, Message: message})
	return nil
}

func (sender *recordingSender) sent() []services.Notification {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	return append([]services.Notification{}, sender.messages...)
}

type testServer struct {
	app      *fiber.App
	registry *services.ProfileRegistry
	profile  *services.ProfileRuntime
	sender   *recordingSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "fertility-api-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("load sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	i18nManager, err := i18n.NewEmbeddedManager("en")
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	registry := services.NewProfileRegistry(db.NewRepositories(database).Profiles, time.UTC)
	profile, err := registry.EnsureDefault("Home")
	if err != nil {
		t.Fatalf("create default profile: %v", err)
	}

	sender := &recordingSender{}
	notifier := services.NewNotificationService(registry, i18nManager, services.NotificationConfig{
		Language: "en",
		Senders:  map[string]services.Sender{"notify.test": sender},
	})

	app := fiber.New()
	RegisterRoutes(app, NewHandler(registry, notifier, time.UTC, i18nManager))

	return &testServer{app: app, registry: registry, profile: profile, sender: sender}
}

func (server *testServer) request(t *testing.T, method string, path string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		switch typed := payload.(type) {
		case string:
			body = bytes.NewBufferString(typed)
		default:
			encoded, err := json.Marshal(payload)
			if err != nil {
				t.Fatalf("marshal payload: %v", err)
			}
			body = bytes.NewReader(encoded)
		}
	}

	request := httptest.NewRequest(method, path, body)
	if body != nil {
		request.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	response, err := server.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() {
		_ = response.Body.Close()
	})
	return response
}

func (server *testServer) profilePath(suffix string) string {
	return "/api/profiles/" + server.profile.ID() + suffix
}

func decodeJSON(t *testing.T, response *http.Response, target any) {
	t.Helper()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("decode response body %q: %v", string(raw), err)
	}
}

func readAPIError(t *testing.T, response *http.Response) string {
	t.Helper()

	payload := map[string]any{}
	decodeJSON(t, response, &payload)
	message, _ := payload["error"].(string)
	return message
}

func assertStatus(t *testing.T, response *http.Response, want int) {
	t.Helper()
	if response.StatusCode != want {
		raw, _ := io.ReadAll(response.Body)
		t.Fatalf("expected status %d, got %d: %s", want, response.StatusCode, string(raw))
	}
}

func mustParseDay(t *testing.T, raw string) time.Time {
	t.Helper()

	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		t.Fatalf("parse day %q: %v", raw, err)
	}
	return parsed
}

func (server *testServer) seedCycles(t *testing.T, starts ...string) {
	t.Helper()
	for _, start := range starts {
		if _, err := server.profile.AddPeriod(mustParseDay(t, start), nil, nil); err != nil {
			t.Fatalf("seed cycle %s: %v", start, err)
		}
	}
}
