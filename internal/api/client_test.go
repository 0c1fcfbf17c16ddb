package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mediamorph/internal/api"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...api.Option) (*api.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := api.New(server.URL, opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client, server
}

func TestRequestsCarryBearerTokenAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(api.User{ID: 1, Email: "user@example.com"})
	}), api.WithTokenSource(api.StaticToken("token-abc")))

	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me returned error: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if gotAuth != "Bearer token-abc" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatal("expected a request id header")
	}
}

func TestRequestsWithoutTokenOmitAuthHeader(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("unexpected Authorization header: %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Not authenticated"}`)
	}))

	_, err := client.Me(context.Background())
	if !api.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestLoginPostsURLEncodedForm(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type: %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("username") != "user@example.com" || r.PostForm.Get("password") != "hunter2hunter2" {
			t.Errorf("unexpected form values: %v", r.PostForm)
		}
		json.NewEncoder(w).Encode(api.TokenPair{AccessToken: "acc", RefreshToken: "ref", TokenType: "bearer"})
	}))

	pair, err := client.Login(context.Background(), "user@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if pair.AccessToken != "acc" || pair.RefreshToken != "ref" {
		t.Fatalf("unexpected token pair: %+v", pair)
	}
}

func TestRegisterRejectsShortPasswordBeforeAnyRequest(t *testing.T) {
	called := false
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := client.Register(context.Background(), "user@example.com", "short7!")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if msg := api.Message(err, "fallback"); !strings.Contains(msg, "at least 8 characters") {
		t.Fatalf("unexpected message: %q", msg)
	}
	if called {
		t.Fatal("no request should be issued for invalid input")
	}

	_, err = client.Register(context.Background(), "user@example.com", strings.Repeat("x", 73))
	if err == nil {
		t.Fatal("expected validation error for long password")
	}
	if msg := api.Message(err, "fallback"); !strings.Contains(msg, "72 characters or fewer") {
		t.Fatalf("unexpected message: %q", msg)
	}
	if called {
		t.Fatal("no request should be issued for invalid input")
	}
}

func TestJobStatusRequiresJobID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	if _, err := client.JobStatus(context.Background(), api.KindVideo, 0); err == nil {
		t.Fatal("expected validation error for missing job id")
	}
}

func TestStartConversionSubmitsVideoPayload(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/video/convert" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["video_id"] != float64(7) || payload["target_format"] != "mp4" {
			t.Errorf("unexpected payload: %v", payload)
		}
		if _, present := payload["target_resolution"]; present {
			t.Errorf("empty optional field should be omitted: %v", payload)
		}
		if payload["keep_audio"] != true {
			t.Errorf("keep_audio should serialize explicitly: %v", payload)
		}
		json.NewEncoder(w).Encode(api.ConversionJob{ID: 31, VideoID: 7, Status: api.JobQueued})
	}))

	job, err := client.StartConversion(context.Background(), api.VideoConversionRequest{
		VideoID:      7,
		TargetFormat: "mp4",
		KeepAudio:    true,
	})
	if err != nil {
		t.Fatalf("StartConversion returned error: %v", err)
	}
	if job.ID != 31 || job.Status != api.JobQueued {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestStartConversionValidatesParameters(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	cases := []struct {
		name string
		req  api.ConversionRequest
	}{
		{"missing video id", api.VideoConversionRequest{TargetFormat: "mp4"}},
		{"bad video format", api.VideoConversionRequest{VideoID: 1, TargetFormat: "wmv"}},
		{"missing image id", api.ImageConversionRequest{TargetFormat: "png"}},
		{"bad image format", api.ImageConversionRequest{ImageID: 1, TargetFormat: "tiff"}},
		{"quality too low", api.ImageConversionRequest{ImageID: 1, TargetFormat: "jpg", Quality: 5}},
		{"quality too high", api.ImageConversionRequest{ImageID: 1, TargetFormat: "jpg", Quality: 96}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := client.StartConversion(context.Background(), tc.req); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestListMediaAndHistoryDecode(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/image/list":
			io.WriteString(w, `[{"id":3,"original_filename":"cat.png","original_format":"png","file_size":1024}]`)
		case "/video/history":
			io.WriteString(w, `[{"video":{"id":9,"original_filename":"clip.mov"},"conversion":{"id":12,"video_id":9,"status":"completed","progress":100,"target_format":"mp4"}}]`)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))

	assets, err := client.ListMedia(context.Background(), api.KindImage)
	if err != nil {
		t.Fatalf("ListMedia returned error: %v", err)
	}
	if len(assets) != 1 || assets[0].OriginalFilename != "cat.png" {
		t.Fatalf("unexpected assets: %+v", assets)
	}

	items, err := client.History(context.Background(), api.KindVideo)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("unexpected history: %+v", items)
	}
	if media := items[0].Media(); media == nil || media.ID != 9 {
		t.Fatalf("unexpected media: %+v", items[0])
	}
	if items[0].Conversion.MediaID() != 9 || !items[0].Conversion.Status.Terminal() {
		t.Fatalf("unexpected conversion: %+v", items[0].Conversion)
	}
}
