package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	ocpi "chargenet-cloud/internal/ocpi/domain"
)

func TestClient_SendsTokenHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"x":1},"status_code":1000,"status_message":"Success","timestamp":"2024-05-01T10:00:00Z"}`))
	}))
	defer server.Close()

	client, err := NewClient("secret-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Token secret-token" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if resp.HTTPStatus != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.HTTPStatus)
	}

	var payload map[string]int
	if err := resp.Decode(&payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload["x"] != 1 {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestClient_EnvelopeErrorBecomesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status_code":2001,"status_message":"Invalid or missing parameters","timestamp":"2024-05-01T10:00:00Z"}`))
	}))
	defer server.Close()

	client, _ := NewClient("secret-token")
	resp, err := client.Post(context.Background(), server.URL, map[string]string{"k": "v"})
	if err == nil {
		t.Fatal("expected status error")
	}
	var statusErr *ocpi.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.Code != 2001 {
		t.Fatalf("unexpected code: %d", statusErr.Code)
	}
	if resp == nil || resp.Envelope.StatusCode != 2001 {
		t.Fatal("expected decoded envelope alongside the error")
	}
}

func TestClient_HTTPErrorBecomesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, _ := NewClient("secret-token")
	_, err := client.Get(context.Background(), server.URL)
	var transportErr *ocpi.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T", err)
	}
	if transportErr.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("unexpected http status: %d", transportErr.HTTPStatus)
	}
}

func TestNewClient_RequiresToken(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestWithPageSize(t *testing.T) {
	got, err := WithPageSize("https://emsp.example/tokens", 50, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://emsp.example/tokens?limit=25&offset=50" {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestNextPage(t *testing.T) {
	header := http.Header{}
	header.Set("Link", `<https://emsp.example/tokens?offset=50>; rel="next"`)
	if got := NextPage("https://emsp.example/tokens", header); got != "https://emsp.example/tokens?offset=50" {
		t.Fatalf("unexpected next page: %s", got)
	}
}

func TestNextPage_NoNext(t *testing.T) {
	header := http.Header{}
	header.Set("Link", `<https://emsp.example/tokens?offset=0>; rel="prev"`)
	if got := NextPage("https://emsp.example/tokens", header); got != "" {
		t.Fatalf("expected empty, got %s", got)
	}
	if got := NextPage("https://emsp.example/tokens", nil); got != "" {
		t.Fatalf("expected empty for nil header, got %s", got)
	}
}

func TestNextPage_SelfLinkGuard(t *testing.T) {
	current := "https://emsp.example/tokens?offset=50"
	header := http.Header{}
	header.Set("Link", "<"+current+`>; rel="next"`)
	if got := NextPage(current, header); got != "" {
		t.Fatalf("expected self-link to terminate pagination, got %s", got)
	}
}

func TestNextPage_UnquotedRel(t *testing.T) {
	header := http.Header{}
	header.Set("Link", `<https://emsp.example/tokens?offset=100>; rel=next`)
	if got := NextPage("https://emsp.example/tokens?offset=50", header); got != "https://emsp.example/tokens?offset=100" {
		t.Fatalf("unexpected next page: %s", got)
	}
}
