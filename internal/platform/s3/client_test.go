package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// testClient creates a Client backed by a test HTTP server.
// The handler receives real S3 XML-protocol requests.
func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)

	client := s3.New(s3.Options{
		Region:       "ewr",
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		HTTPClient: &http.Client{
			Transport: &http.Transport{},
		},
	})

	return &Client{s3: client, region: "ewr"}, server
}

// xmlResponse is a helper to write S3-style XML responses.
func xmlResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

func s3Error(code string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><Error><Code>` + code + `</Code><Message>` + code + `</Message></Error>`
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{
			name: "static credentials and custom endpoint",
			opts: Options{Endpoint: "https://ewr1.vultrobjects.com", Region: "ewr", AccessKey: "a", SecretKey: "b", PathStyle: true},
		},
		{
			name: "default credential chain",
			opts: Options{Region: "us-east-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.region != tt.opts.Region {
				t.Errorf("expected region %s, got %s", tt.opts.Region, client.region)
			}
		})
	}
}

func TestEnsureBucket_Exists(t *testing.T) {
	t.Parallel()

	var puts int
	var mu sync.Mutex
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			mu.Lock()
			puts++
			mu.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	})

	client, server := testClient(t, handler)
	defer server.Close()

	if err := client.EnsureBucket(context.Background(), "backups"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if puts != 0 {
		t.Errorf("expected no create call, got %d", puts)
	}
}

func TestEnsureBucket_Creates(t *testing.T) {
	t.Parallel()

	var created bool
	var mu sync.Mutex
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			xmlResponse(w, http.StatusNotFound, s3Error("NotFound"))
		case http.MethodPut:
			mu.Lock()
			created = r.URL.Path == "/backups"
			mu.Unlock()
			xmlResponse(w, http.StatusOK, `<?xml version="1.0" encoding="UTF-8"?><CreateBucketResult/>`)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	client, server := testClient(t, handler)
	defer server.Close()

	if err := client.EnsureBucket(context.Background(), "backups"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !created {
		t.Error("expected bucket to be created")
	}
}

func TestCreateBucket_AlreadyOwnedByYou(t *testing.T) {
	t.Parallel()

	client, server := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		xmlResponse(w, http.StatusConflict, s3Error("BucketAlreadyOwnedByYou"))
	}))
	defer server.Close()

	if err := client.CreateBucket(context.Background(), "backups"); err != nil {
		t.Fatalf("expected nil error for already owned bucket, got: %v", err)
	}
}

func TestCreateBucket_Error(t *testing.T) {
	t.Parallel()

	client, server := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		xmlResponse(w, http.StatusForbidden, s3Error("AccessDenied"))
	}))
	defer server.Close()

	err := client.CreateBucket(context.Background(), "backups")
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to create bucket backups") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestBucketExists_OtherError(t *testing.T) {
	t.Parallel()

	client, server := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		xmlResponse(w, http.StatusForbidden, s3Error("AccessDenied"))
	}))
	defer server.Close()

	_, err := client.BucketExists(context.Background(), "backups")
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to check bucket backups") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestPutObject_Success(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	var capturedType, capturedPath string
	var mu sync.Mutex

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			mu.Lock()
			body, _ := io.ReadAll(r.Body)
			capturedBody = body
			capturedType = r.Header.Get("Content-Type")
			capturedPath = r.URL.Path
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	client, server := testClient(t, handler)
	defer server.Close()

	data := []byte(`{"id":"s-1"}`)
	if err := client.PutObject(context.Background(), "backups", "manifests/x.json", "application/json", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !bytes.Equal(capturedBody, data) {
		t.Errorf("expected body %q, got %q", data, capturedBody)
	}
	if capturedType != "application/json" {
		t.Errorf("expected content type application/json, got %q", capturedType)
	}
	if capturedPath != "/backups/manifests/x.json" {
		t.Errorf("unexpected path %q", capturedPath)
	}
}

func TestPutObject_Error(t *testing.T) {
	t.Parallel()

	client, server := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		xmlResponse(w, http.StatusInternalServerError, s3Error("InternalError"))
	}))
	defer server.Close()

	err := client.PutObject(context.Background(), "backups", "k", "", []byte("data"))
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to put object k in bucket backups") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestDeleteObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"deleted", http.StatusNoContent, "", false},
		{"missing key", http.StatusNotFound, s3Error("NoSuchKey"), false},
		{"server error", http.StatusInternalServerError, s3Error("InternalError"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, server := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.body == "" {
					w.WriteHeader(tt.status)
					return
				}
				xmlResponse(w, tt.status, tt.body)
			}))
			defer server.Close()

			err := client.DeleteObject(context.Background(), "backups", "k")
			if tt.wantErr && err == nil {
				t.Fatal("expected error but got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		owned    bool
		notFound bool
	}{
		{"nil error", nil, false, false},
		{"generic error", errors.New("boom"), false, false},
		{"typed already owned", &s3types.BucketAlreadyOwnedByYou{}, true, false},
		{"typed no such bucket", &s3types.NoSuchBucket{}, false, true},
		{"typed no such key", &s3types.NoSuchKey{}, false, true},
		{"api already owned", &smithy.GenericAPIError{Code: "BucketAlreadyOwnedByYou"}, true, false},
		{"api not found", &smithy.GenericAPIError{Code: "NotFound"}, false, true},
		{"api access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBucketAlreadyOwnedByYou(tt.err); got != tt.owned {
				t.Errorf("isBucketAlreadyOwnedByYou() = %v, want %v", got, tt.owned)
			}
			if got := isNotFoundError(tt.err); got != tt.notFound {
				t.Errorf("isNotFoundError() = %v, want %v", got, tt.notFound)
			}
		})
	}
}
