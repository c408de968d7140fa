package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dhruvsaxena/splitsight/internal/auth"
	"github.com/dhruvsaxena/splitsight/internal/config"
	"github.com/dhruvsaxena/splitsight/internal/currency"
	"github.com/dhruvsaxena/splitsight/internal/models"
	"github.com/dhruvsaxena/splitsight/internal/service"
)

func testAPI(t *testing.T, ledgerURL string) (*API, *auth.JWTManager) {
	t.Helper()
	cfg := &config.Config{
		BaseCurrency: "USD",
		SplitwiseURL: ledgerURL,
		JWTSecret:    "test-secret",
		SessionTTL:   time.Hour,
	}
	analysis := service.NewAnalysisService(currency.DefaultTable(), "USD", false, 3, nil)
	jwt := auth.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
	return New(cfg, analysis, jwt), jwt
}

func bearerFor(t *testing.T, jwt *auth.JWTManager) string {
	t.Helper()
	token, err := jwt.Generate(&models.User{ID: 1, Email: "me@example.com"})
	if err != nil {
		t.Fatalf("token setup failed: %v", err)
	}
	return "Bearer " + token
}

func TestHealthz(t *testing.T) {
	api, _ := testAPI(t, "")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	api, _ := testAPI(t, "")
	for _, path := range []string{"/api/v1/runs", "/api/v1/ingest/upload"} {
		method := "GET"
		if strings.Contains(path, "ingest") {
			method = "POST"
		}
		rec := httptest.NewRecorder()
		api.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", method, path, rec.Code)
		}
	}
}

func TestSessionExchange(t *testing.T) {
	ledger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ledger-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{"id": 7, "first_name": "Dhruv", "last_name": "Saxena", "email": "d@example.com"},
		})
	}))
	defer ledger.Close()

	api, jwt := testAPI(t, ledger.URL)

	t.Run("valid ledger token mints a session", func(t *testing.T) {
		body := strings.NewReader(`{"api_token":"ledger-token"}`)
		rec := httptest.NewRecorder()
		api.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/session", body))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
		}

		var resp struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		claims, err := jwt.Validate(resp.Token)
		if err != nil {
			t.Fatalf("issued token does not validate: %v", err)
		}
		if claims.UserID != 7 {
			t.Errorf("claims.UserID = %d, want 7", claims.UserID)
		}
		if resp.User.Name != "Dhruv Saxena" {
			t.Errorf("user name = %q, want Dhruv Saxena", resp.User.Name)
		}
	})

	t.Run("rejected ledger token", func(t *testing.T) {
		body := strings.NewReader(`{"api_token":"wrong"}`)
		rec := httptest.NewRecorder()
		api.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/session", body))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		api.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/session", strings.NewReader(`{}`)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestUploadJSONRunsPipeline(t *testing.T) {
	api, jwt := testAPI(t, "")

	const snapshot = `{
		"current_user": {"id": 1, "first_name": "Dhruv"},
		"expenses": [
			{"id": 10, "cost": "100.00", "currency_code": "USD", "date": "2024-01-05",
			 "description": "Dinner", "category": {"name": "Food"},
			 "users": [
				{"user": {"id": 1}, "paid_share": "100.00", "owed_share": "50.00"},
				{"user": {"id": 2}, "paid_share": "0", "owed_share": "50.00"}
			 ]}
		],
		"groups": []
	}`

	req := httptest.NewRequest("POST", "/api/v1/ingest/upload", strings.NewReader(snapshot))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, jwt))

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var insights models.Insights
	if err := json.Unmarshal(rec.Body.Bytes(), &insights); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if insights.ReportID == "" {
		t.Error("ReportID missing from response")
	}
	if insights.Spending.TotalSpending != 50 {
		t.Errorf("TotalSpending = %v, want 50", insights.Spending.TotalSpending)
	}
	if !insights.Validation.IsValid {
		t.Errorf("validation failed unexpectedly: %+v", insights.Validation)
	}
}

func TestUploadCSV(t *testing.T) {
	api, jwt := testAPI(t, "")

	const csvBody = "Expense ID,Date,Description,Category,Cost,Currency,Group,Payment,Paid By\n" +
		"1,2024-01-05,Groceries,Food,42.50,USD,Flat,false,Dhruv\n"

	req := httptest.NewRequest("POST", "/api/v1/ingest/upload", strings.NewReader(csvBody))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Authorization", bearerFor(t, jwt))

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
}

func TestUploadUnsupportedMediaType(t *testing.T) {
	api, jwt := testAPI(t, "")

	req := httptest.NewRequest("POST", "/api/v1/ingest/upload", strings.NewReader("<xml/>"))
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Authorization", bearerFor(t, jwt))

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestLatestInsightsEmptyArchive(t *testing.T) {
	api, jwt := testAPI(t, "")

	req := httptest.NewRequest("GET", "/api/v1/insights/latest", nil)
	req.Header.Set("Authorization", bearerFor(t, jwt))

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 with no archived runs", rec.Code)
	}
}

func TestPullDisabledWithoutToken(t *testing.T) {
	api, jwt := testAPI(t, "")

	req := httptest.NewRequest("POST", "/api/v1/ingest/pull", nil)
	req.Header.Set("Authorization", bearerFor(t, jwt))

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when no ledger token is configured", rec.Code)
	}
}
