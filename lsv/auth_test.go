package lsv

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestLogin_StoresTokens(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode login body: %v", err)
		}

		jsonResponse(w, http.StatusOK,
			`{"accessToken":"access-1","refreshToken":"refresh-1","user":{"id":"u1","email":"a@example.com"}}`)
	})

	client, _ := newTestClient(t, handler, Config{})

	resp, err := client.Login(context.Background(), "a@example.com", "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != loginPath {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotBody.Email != "a@example.com" || gotBody.Password != "hunter2" {
		t.Fatalf("unexpected credentials sent: %+v", gotBody)
	}

	if resp.AccessToken != "access-1" || resp.RefreshToken != "refresh-1" {
		t.Fatalf("unexpected tokens in response: %+v", resp)
	}
	if resp.User["id"] != "u1" {
		t.Fatalf("unexpected user: %v", resp.User)
	}

	if client.Tokens().AccessToken() != "access-1" {
		t.Fatal("access token not stored in the manager")
	}
	if client.Tokens().RefreshToken() != "refresh-1" {
		t.Fatal("refresh token not stored in the manager")
	}
}

func TestLogout_ClearsTokensEvenOnError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusInternalServerError, `{"message":"session store down"}`)
	})

	client, _ := newTestClient(t, handler,
		Config{AccessToken: tokenExpiringIn(t, time.Hour), RefreshToken: "refresh-1"})

	if err := client.Logout(context.Background()); err == nil {
		t.Fatal("expected the server failure surfaced")
	}

	if client.Tokens().AccessToken() != "" || client.Tokens().RefreshToken() != "" {
		t.Fatal("expected local tokens cleared despite the server failure")
	}
}

func TestMe_DecodesUser(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != mePath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		jsonResponse(w, http.StatusOK,
			`{"id":"u1","email":"a@example.com","name":"Ada","disabled":false,"createdAt":"2025-03-01T12:00:00Z"}`)
	})

	client, _ := newTestClient(t, handler, Config{AccessToken: tokenExpiringIn(t, time.Hour)})

	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.ID != "u1" || user.Email != "a@example.com" || user.Name != "Ada" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.CreatedAt.IsZero() {
		t.Fatal("expected createdAt parsed")
	}
}
