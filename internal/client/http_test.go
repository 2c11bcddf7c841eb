package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/steamrec/internal/request"
	"github.com/goccy/go-json"
)

func TestNewHTTPClient(t *testing.T) {
	if _, err := NewHTTPClient("", 0); err == nil {
		t.Error("expected error for empty base URL")
	}
	if _, err := NewHTTPClient("not a url", 0); err == nil {
		t.Error("expected error for invalid base URL")
	}

	c, err := NewHTTPClient("http://localhost:4000/", time.Second)
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	if c.baseURL != "http://localhost:4000" {
		t.Errorf("expected trailing slash trimmed, got %q", c.baseURL)
	}
	if c.Name() != "http" {
		t.Errorf("expected 'http', got %q", c.Name())
	}
}

func TestHTTPClient_FetchLibrary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/get-games" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("steamid"); got != "76561197960287930" {
			t.Errorf("expected steamid query, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"game_count": 2,
			"games": [
				{"appid": 10, "name": "Alpha", "img_icon_url": "abc", "playtime_forever": 12},
				{"appid": 20, "name": "Beta"}
			]
		}`))
	}))
	defer server.Close()

	c, _ := NewHTTPClient(server.URL, time.Second)
	lib, err := c.FetchLibrary(context.Background(), "76561197960287930")
	if err != nil {
		t.Fatalf("FetchLibrary failed: %v", err)
	}
	if lib.GameCount != 2 || len(lib.Games) != 2 {
		t.Fatalf("unexpected library %+v", lib)
	}

	items := lib.Items()
	if items[0].ID != 10 || items[0].Name != "Alpha" || items[0].IconRef != "abc" {
		t.Errorf("unexpected item %+v", items[0])
	}
}

func TestHTTPClient_Recommend(t *testing.T) {
	var got request.Recommendation
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/recommend" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad body %s: %v", body, err)
		}
		w.Write([]byte(`[{"id": 400, "name": "Portal", "short_description": "Puzzles."}]`))
	}))
	defer server.Close()

	c, _ := NewHTTPClient(server.URL, time.Second)
	results, err := c.Recommend(context.Background(), &request.Recommendation{
		InputGames:  []request.InputGame{{ID: 20, Multiplier: 1.5, Type: "opposite"}},
		NicheFactor: 0.5,
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Portal" || results[0].ShortDescription != "Puzzles." {
		t.Errorf("unexpected results %+v", results)
	}
	if len(got.InputGames) != 1 || got.InputGames[0].Type != "opposite" || got.NicheFactor != 0.5 {
		t.Errorf("server saw %+v", got)
	}
}

func TestHTTPClient_RemoteErrors(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"server message", http.StatusNotFound, `{"error": "profile is private"}`, "profile is private"},
		{"no body", http.StatusBadGateway, ``, "HTTP error, status 502"},
		{"non json", http.StatusInternalServerError, `<html>oops</html>`, "HTTP error, status 500"},
		{"empty error", http.StatusBadRequest, `{"error": ""}`, "HTTP error, status 400"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			c, _ := NewHTTPClient(server.URL, time.Second)
			_, err := c.FetchLibrary(context.Background(), "76561197960287930")

			var remote *RemoteError
			if !errors.As(err, &remote) {
				t.Fatalf("expected RemoteError, got %T %v", err, err)
			}
			if remote.StatusCode != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, remote.StatusCode)
			}
			if UserMessage(err) != tc.message {
				t.Errorf("expected %q, got %q", tc.message, UserMessage(err))
			}
		})
	}
}

func TestHTTPClient_BadSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	c, _ := NewHTTPClient(server.URL, time.Second)
	_, err := c.Recommend(context.Background(), &request.Recommendation{})

	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %T", err)
	}
	if !strings.Contains(remote.Message, "Unexpected response") {
		t.Errorf("unexpected message %q", remote.Message)
	}
}

func TestHTTPClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, _ := NewHTTPClient(url, time.Second)
	_, err := c.FetchLibrary(context.Background(), "76561197960287930")

	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if UserMessage(err) != NetworkFailureMessage {
		t.Errorf("expected network failure message, got %q", UserMessage(err))
	}
}

func TestHTTPClient_UnencodableRequest(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	c, _ := NewHTTPClient(server.URL, time.Second)
	_, err := c.Recommend(context.Background(), &request.Recommendation{
		InputGames:  []request.InputGame{{ID: 10, Multiplier: 1, Type: "like"}},
		NicheFactor: math.NaN(),
	})
	if err == nil {
		t.Fatal("expected encode error for NaN niche factor")
	}
	if hits != 0 {
		t.Errorf("expected no request to be sent, got %d", hits)
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		t.Errorf("encode failure should not be a TransportError: %v", err)
	}
	if got := UserMessage(err); got != RequestFailureMessage {
		t.Errorf("expected request failure message, got %q", got)
	}
}

func TestUserMessage(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{"remote with text", &RemoteError{StatusCode: 403, Message: "profile is private"}, "profile is private"},
		{"remote without text", &RemoteError{StatusCode: 502}, "HTTP error, status 502"},
		{"transport", &TransportError{Err: errors.New("dial tcp: refused")}, NetworkFailureMessage},
		{"wrapped transport", fmt.Errorf("fetch: %w", &TransportError{Err: io.EOF}), NetworkFailureMessage},
		{"local", errors.New("json: unsupported value: NaN"), RequestFailureMessage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := UserMessage(tc.err); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestHTTPClient_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := NewHTTPClient(server.URL, 0)
	_, err := c.FetchLibrary(ctx, "76561197960287930")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}
