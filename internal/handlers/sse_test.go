package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-dashboard/internal/models"
)

func TestNewSSEHandlers(t *testing.T) {
	env := createTestDashboard(t, true)

	handlers := NewSSEHandlers(env.dashboard, env.metrics, env.logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.dashboard != env.dashboard {
		t.Error("NewSSEHandlers() should set dashboard field")
	}
	if handlers.logger != env.logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_renderContent(t *testing.T) {
	env := createTestDashboard(t, true)
	handlers := NewSSEHandlers(env.dashboard, env.metrics, env.logger)

	view, err := env.dashboard.ComputeView(context.Background(), models.PageOverview, models.DefaultSelection())
	if err != nil {
		t.Fatalf("ComputeView() failed: %v", err)
	}

	html, err := handlers.renderContent(context.Background(), view)
	if err != nil {
		t.Fatalf("renderContent() failed: %v", err)
	}

	expectedContent := []string{
		`id="page-content"`,
		`data-page="overview"`,
		"<h1>Overview</h1>",
		"Total Sales",
		"$1,000",
		`data-kind="pie"`,
		`data-kind="bar"`,
	}

	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}
}

func TestSSEHandlers_HandlePage(t *testing.T) {
	env := createTestDashboard(t, true)
	handlers := NewSSEHandlers(env.dashboard, env.metrics, env.logger)

	for _, page := range models.Pages {
		t.Run(string(page), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sse/pages/"+string(page), nil)
			req.SetPathValue("page", string(page))
			w := httptest.NewRecorder()

			handlers.HandlePage(w, req)

			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
				t.Errorf("expected event stream, got %q", ct)
			}

			body := w.Body.String()
			if !strings.Contains(body, "page-content") {
				t.Error("expected page content patch in stream")
			}
			if !strings.Contains(body, `data-page="`+string(page)+`"`) {
				t.Errorf("expected content for page %s", page)
			}
		})
	}
}

func TestSSEHandlers_HandlePage_Unknown(t *testing.T) {
	env := createTestDashboard(t, true)
	handlers := NewSSEHandlers(env.dashboard, env.metrics, env.logger)

	req := httptest.NewRequest(http.MethodGet, "/sse/pages/reports", nil)
	req.SetPathValue("page", "reports")
	w := httptest.NewRecorder()

	handlers.HandlePage(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"NOT_FOUND"`) {
		t.Errorf("expected error envelope, got %s", w.Body.String())
	}
}

func TestSSEHandlers_HandlePage_NotLoaded(t *testing.T) {
	env := createTestDashboard(t, false)
	handlers := NewSSEHandlers(env.dashboard, env.metrics, env.logger)

	req := httptest.NewRequest(http.MethodGet, "/sse/pages/overview", nil)
	req.SetPathValue("page", "overview")
	w := httptest.NewRecorder()

	handlers.HandlePage(w, req)

	if !strings.Contains(w.Body.String(), "Unable to show this page") {
		t.Error("expected error message patch when dataset is not loaded")
	}
}

func TestSSEHandlers_HandleFilter(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantState string
		wantPage  string
	}{
		{
			name:      "applies selection",
			body:      `{"state":"Texas","year":"2021","category":"All","page":"locations"}`,
			wantState: "Texas",
			wantPage:  "locations",
		},
		{
			name:      "unknown state falls back",
			body:      `{"state":"Atlantis","year":"All","category":"All","page":"customers"}`,
			wantState: "All",
			wantPage:  "customers",
		},
		{
			name:      "unknown page renders overview",
			body:      `{"state":"California","year":"All","category":"All","page":"reports"}`,
			wantState: "California",
			wantPage:  "overview",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := createTestDashboard(t, true)
			handlers := NewSSEHandlers(env.dashboard, env.metrics, env.logger)

			req := httptest.NewRequest(http.MethodPost, "/sse/filter", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handlers.HandleFilter(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}

			body := w.Body.String()
			if !strings.Contains(body, `"state":"`+tt.wantState+`"`) {
				t.Errorf("expected corrected state signal %q in %s", tt.wantState, body)
			}
			if !strings.Contains(body, `data-page="`+tt.wantPage+`"`) {
				t.Errorf("expected content for page %s", tt.wantPage)
			}

			if got := env.dashboard.Selection("").State; got != tt.wantState {
				t.Errorf("stored state = %q, want %q", got, tt.wantState)
			}
		})
	}
}

func TestSSEHandlers_HandleFilter_InvalidSignals(t *testing.T) {
	env := createTestDashboard(t, true)
	handlers := NewSSEHandlers(env.dashboard, env.metrics, env.logger)

	req := httptest.NewRequest(http.MethodPost, "/sse/filter", strings.NewReader(`{"state":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handlers.HandleFilter(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"BAD_REQUEST"`) {
		t.Errorf("expected error envelope, got %s", w.Body.String())
	}
	if got := env.dashboard.Selection(""); got != models.DefaultSelection() {
		t.Errorf("selection changed on invalid signals: %+v", got)
	}
}

func TestSSEHandlers_ConcurrentFilters(t *testing.T) {
	env := createTestDashboard(t, true)
	handlers := NewSSEHandlers(env.dashboard, env.metrics, env.logger)

	states := []string{"California", "New York", "Texas"}
	done := make(chan struct{}, len(states))

	for _, state := range states {
		go func(state string) {
			defer func() { done <- struct{}{} }()
			body := `{"state":"` + state + `","year":"All","category":"All","page":"overview"}`
			req := httptest.NewRequest(http.MethodPost, "/sse/filter", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			handlers.HandleFilter(httptest.NewRecorder(), req)
		}(state)
	}
	for range states {
		<-done
	}

	got := env.dashboard.Selection("").State
	if got != "California" && got != "New York" && got != "Texas" {
		t.Errorf("unexpected final state %q", got)
	}
}
