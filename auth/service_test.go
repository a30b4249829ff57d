package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := newTestHTTPClient(t)
	store := newTestStore(t)
	refresher := NewRefresher(server.URL, httpClient)
	client := NewClient(server.URL, httpClient, store, refresher, zerolog.Nop())
	return NewService(server.URL, httpClient, refresher, client, zerolog.Nop())
}

func TestService_Login(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token/" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		var creds Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("Failed to decode credentials: %v", err)
		}
		if creds.Email != "user@example.com" || creds.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"detail": "No active account found with the given credentials",
			})
			return
		}
		json.NewEncoder(w).Encode(TokenPair{Access: "a1", Refresh: "r1"})
	})

	service := newTestService(t, handler)
	ctx := context.Background()

	tokens, err := service.Login(ctx, Credentials{Email: "user@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if tokens.Access != "a1" || tokens.Refresh != "r1" {
		t.Errorf("Unexpected tokens: %+v", tokens)
	}
}

func TestService_Login_Rejected(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"detail": "No active account found with the given credentials",
		})
	})

	service := newTestService(t, handler)
	_, err := service.Login(context.Background(), Credentials{Email: "x", Password: "y"})
	if err == nil {
		t.Fatal("Expected login error")
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected *AuthError, got %T: %v", err, err)
	}
	if authErr.Error() != "No active account found with the given credentials" {
		t.Errorf("Expected server detail message, got %q", authErr.Error())
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", authErr.Status)
	}
}

func TestService_Verify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"accepted", http.StatusOK, false},
		{"rejected", http.StatusUnauthorized, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/token/verify/" {
					t.Errorf("Unexpected path: %s", r.URL.Path)
				}
				var req struct {
					Token string `json:"token"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("Failed to decode request: %v", err)
				}
				if req.Token == "" {
					t.Error("Expected token in request body")
				}
				w.WriteHeader(tt.status)
			})

			service := newTestService(t, handler)
			err := service.Verify(context.Background(), "some-access-token")

			if tt.wantErr {
				var verifyErr *VerifyError
				if !errors.As(err, &verifyErr) {
					t.Fatalf("Expected *VerifyError, got %T: %v", err, err)
				}
				if verifyErr.Status != tt.status {
					t.Errorf("Expected status %d, got %d", tt.status, verifyErr.Status)
				}
			} else if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
		})
	}
}

func TestService_Register(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/users/" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("Registration must be unauthenticated, got header %q", auth)
		}
		var reg Registration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			t.Errorf("Failed to decode registration: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(RegistrationResult{ID: 7, Email: reg.Email})
	})

	service := newTestService(t, handler)
	result, err := service.Register(context.Background(), Registration{
		Email:      "new@example.com",
		Password:   "pw",
		RePassword: "pw",
		FirstName:  "New",
		LastName:   "User",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.ID != 7 || result.Email != "new@example.com" {
		t.Errorf("Unexpected result: %+v", result)
	}
}
