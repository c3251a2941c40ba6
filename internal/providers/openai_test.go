package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pratik-mahalle/altseo/internal/config"
)

func TestOpenAIDescriber_Describe(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  \"A tabby cat asleep on a blue sofa\" "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	d := NewOpenAIDescriber(config.AIConfig{
		OpenAIAPIKey:  "sk-test",
		OpenAIBaseURL: srv.URL + "/v1",
		Model:         "gpt-4o-mini",
		MaxTokens:     60,
	})

	text, err := d.Describe(context.Background(), "https://cdn.test/cat.png")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if text != "A tabby cat asleep on a blue sofa" {
		t.Errorf("Describe() = %q", text)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", gotBody["model"])
	}
}

func TestOpenAIDescriber_Errors(t *testing.T) {
	t.Run("no key", func(t *testing.T) {
		d := NewOpenAIDescriber(config.AIConfig{})
		if _, err := d.Describe(context.Background(), "https://cdn.test/x.png"); !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("Describe() error = %v, want ErrNoAPIKey", err)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		}))
		defer srv.Close()

		d := NewOpenAIDescriber(config.AIConfig{OpenAIAPIKey: "sk-test", OpenAIBaseURL: srv.URL + "/v1"})
		if _, err := d.Describe(context.Background(), "https://cdn.test/x.png"); err == nil {
			t.Error("Describe() error = nil, want upstream error")
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
		}))
		defer srv.Close()

		d := NewOpenAIDescriber(config.AIConfig{OpenAIAPIKey: "sk-test", OpenAIBaseURL: srv.URL + "/v1"})
		if _, err := d.Describe(context.Background(), "https://cdn.test/x.png"); err == nil {
			t.Error("Describe() error = nil, want empty-choices error")
		}
	})
}

func TestS3PublicBase(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
		want string
	}{
		{"explicit base", config.StorageConfig{PublicBaseURL: "https://cdn.example.com/", Bucket: "b"}, "https://cdn.example.com"},
		{"custom endpoint", config.StorageConfig{Endpoint: "http://minio:9000", Bucket: "imgs"}, "http://minio:9000/imgs"},
		{"aws default", config.StorageConfig{Bucket: "imgs"}, "https://imgs.s3.eu-west-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s3PublicBase(tt.cfg, "eu-west-1"); got != tt.want {
				t.Errorf("s3PublicBase() = %q, want %q", got, tt.want)
			}
		})
	}
}
