package igdb

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCreds(t *testing.T, dir string) {
	t.Helper()
	creds := []byte(`{"client_id": "cid", "client_secret": "secret"}`)
	if err := os.WriteFile(filepath.Join(dir, credentialsFile), creds, 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestInitialiseWritesCredentialsTemplate(t *testing.T) {
	dir := t.TempDir()

	tm, err := NewTokenManager(dir, http.DefaultClient)
	if err != nil {
		t.Fatal(err)
	}
	if err := tm.Initialise(); err == nil {
		t.Fatal("expected error when credentials file is missing")
	}

	data, err := os.ReadFile(filepath.Join(dir, credentialsFile))
	if err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if !strings.Contains(string(data), "client_id") {
		t.Fatalf("template missing client_id field: %s", data)
	}
}

func TestInitialiseRejectsIncompleteCredentials(t *testing.T) {
	dir := t.TempDir()
	blank := []byte(`{"client_id": "", "client_secret": ""}`)
	if err := os.WriteFile(filepath.Join(dir, credentialsFile), blank, 0o600); err != nil {
		t.Fatal(err)
	}

	tm, err := NewTokenManager(dir, http.DefaultClient)
	if err != nil {
		t.Fatal(err)
	}
	if err := tm.Initialise(); err == nil {
		t.Fatal("expected error for blank credentials")
	}
}

func TestInitialiseReusesValidCachedToken(t *testing.T) {
	grants := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/validate":
			w.WriteHeader(http.StatusOK)
		case "/token":
			grants++
			w.Write([]byte(`{"access_token": "fresh"}`))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeCreds(t, dir)
	cached := []byte(`{"token": "cached"}`)
	if err := os.WriteFile(filepath.Join(dir, tokenFile), cached, 0o600); err != nil {
		t.Fatal(err)
	}

	tm, err := NewTokenManager(dir, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	tm.grantURL = srv.URL + "/token"
	tm.validateURL = srv.URL + "/validate"

	if err := tm.Initialise(); err != nil {
		t.Fatal(err)
	}
	if tm.token != "cached" {
		t.Fatalf("token = %q, want cached", tm.token)
	}
	if grants != 0 {
		t.Fatalf("grant endpoint hit %d times, want 0", grants)
	}
}

func TestInitialiseGrantsAndPersistsFreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/validate":
			w.WriteHeader(http.StatusUnauthorized)
		case "/token":
			if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
				t.Errorf("Content-Type = %q", got)
			}
			w.Write([]byte(`{"access_token": "fresh", "expires_in": 3600}`))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeCreds(t, dir)

	tm, err := NewTokenManager(dir, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	tm.grantURL = srv.URL + "/token"
	tm.validateURL = srv.URL + "/validate"

	if err := tm.Initialise(); err != nil {
		t.Fatal(err)
	}
	if tm.token != "fresh" {
		t.Fatalf("token = %q, want fresh", tm.token)
	}

	data, err := os.ReadFile(filepath.Join(dir, tokenFile))
	if err != nil {
		t.Fatalf("token file not persisted: %v", err)
	}
	if !strings.Contains(string(data), "fresh") {
		t.Fatalf("token file missing fresh token: %s", data)
	}
}

func TestHeaderRequiresInitialise(t *testing.T) {
	tm, err := NewTokenManager(t.TempDir(), http.DefaultClient)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tm.Header(); err == nil {
		t.Fatal("expected error before Initialise")
	}

	tm.creds = credentials{ClientID: "cid", ClientSecret: "secret"}
	tm.token = "tok"
	headers, err := tm.Header()
	if err != nil {
		t.Fatal(err)
	}
	if len(headers) != 2 || headers[1].Value != "Bearer tok" {
		t.Fatalf("headers = %v", headers)
	}
}
