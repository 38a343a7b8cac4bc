package emotion

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDetect_Success_ReturnsEmotion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/detect_emotion" {
			t.Errorf("path = %s, want /detect_emotion", r.URL.Path)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req["input_text"] != "i miss my dog" {
			t.Errorf("input_text = %q, want %q", req["input_text"], "i miss my dog")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"detected_emotion": "sad"})
	}))
	defer server.Close()

	client := NewClient(server.Client(), slog.Default(), server.URL)

	emotion, err := client.Detect(context.Background(), "i miss my dog")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if emotion != "sad" {
		t.Errorf("emotion = %q, want sad", emotion)
	}
}

func TestDetect_NonSuccessStatus_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.Client(), slog.Default(), server.URL)

	if _, err := client.Detect(context.Background(), "text"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestDetect_MalformedResponse_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), slog.Default(), server.URL)

	if _, err := client.Detect(context.Background(), "text"); err == nil {
		t.Fatal("expected error for malformed response")
	}
}

func TestDetect_MissingEmotionField_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), slog.Default(), server.URL)

	if _, err := client.Detect(context.Background(), "text"); err == nil {
		t.Fatal("expected error when detected_emotion is missing")
	}
}

func TestDetect_Timeout_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"detected_emotion":"sad"}`))
	}))
	defer server.Close()

	httpClient := &http.Client{Timeout: 50 * time.Millisecond}
	client := NewClient(httpClient, slog.Default(), server.URL)

	if _, err := client.Detect(context.Background(), "text"); err == nil {
		t.Fatal("expected error for timed out request")
	}
}
