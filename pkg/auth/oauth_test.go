package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"
)

func TestBearerClientSetsAuthorization(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := BearerClient(context.Background(), "s3cret", srv.Client())
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got != "Bearer s3cret" {
		t.Errorf("Expected 'Bearer s3cret', got '%s'", got)
	}
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", TokenFile)
	if err := SaveToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	tok, err := LoadToken(path)
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if tok.AccessToken != "a" || tok.RefreshToken != "r" {
		t.Errorf("Unexpected token: %+v", tok)
	}

	if err := RemoveToken(filepath.Dir(path)); err != nil {
		t.Fatalf("RemoveToken failed: %v", err)
	}
	if _, err := LoadToken(path); err == nil {
		t.Errorf("Expected token to be gone")
	}
	if err := RemoveToken(filepath.Dir(path)); err != nil {
		t.Errorf("Expected removing a missing token to succeed, got %v", err)
	}
}
