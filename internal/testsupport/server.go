package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"mediamorph/internal/api"
)

// FakeService is an in-memory stand-in for the conversion service. It
// implements the endpoint surface the client consumes: auth, uploads,
// listings, conversions, status polling, and byte-stream downloads.
type FakeService struct {
	t      testing.TB
	server *httptest.Server

	mu         sync.Mutex
	users      map[string]string
	tokens     map[string]string
	assets     map[api.Kind][]api.MediaAsset
	jobs       map[api.Kind]map[int64]*api.ConversionJob
	jobScripts map[int64][]api.ConversionJob
	history    map[api.Kind][]api.HistoryItem
	chunks     map[string][]byte
	nextID     int64
	fetches    map[int64]int
}

// NewFakeService starts a fake conversion service and registers cleanup.
func NewFakeService(t testing.TB) *FakeService {
	t.Helper()
	f := &FakeService{
		t:          t,
		users:      make(map[string]string),
		tokens:     make(map[string]string),
		assets:     make(map[api.Kind][]api.MediaAsset),
		jobs:       map[api.Kind]map[int64]*api.ConversionJob{api.KindVideo: {}, api.KindImage: {}},
		jobScripts: make(map[int64][]api.ConversionJob),
		history:    make(map[api.Kind][]api.HistoryItem),
		chunks:     make(map[string][]byte),
		fetches:    make(map[int64]int),
	}
	f.server = httptest.NewServer(f.routes())
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the service base URL.
func (f *FakeService) URL() string { return f.server.URL }

// SeedUser registers an account without going through the endpoint.
func (f *FakeService) SeedUser(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = password
}

// IssueToken mints an access token for email, bypassing login.
func (f *FakeService) IssueToken(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := fmt.Sprintf("token-%s-%d", email, len(f.tokens)+1)
	f.tokens[token] = email
	return token
}

// RevokeAll invalidates every issued token.
func (f *FakeService) RevokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]string)
}

// SeedAsset adds a media asset to the listing for kind.
func (f *FakeService) SeedAsset(kind api.Kind, asset api.MediaAsset) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[kind] = append(f.assets[kind], asset)
}

// SetPreviewPath marks a video original's preview as generated.
func (f *FakeService) SetPreviewPath(kind api.Kind, mediaID int64, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.assets[kind] {
		if f.assets[kind][i].ID == mediaID {
			f.assets[kind][i].PreviewPath = path
		}
	}
}

// AddHistory appends a history item for kind.
func (f *FakeService) AddHistory(kind api.Kind, item api.HistoryItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[kind] = append(f.history[kind], item)
}

// ScriptJob installs the sequence of snapshots successive status fetches
// will return for the job. The last snapshot repeats once exhausted.
func (f *FakeService) ScriptJob(kind api.Kind, job api.ConversionJob, snapshots ...api.ConversionJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := job
	f.jobs[kind][job.ID] = &stored
	if len(snapshots) > 0 {
		f.jobScripts[job.ID] = snapshots
	}
}

// StatusFetches reports how many times the job's status endpoint was hit.
func (f *FakeService) StatusFetches(jobID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[jobID]
}

func (f *FakeService) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", f.handleRegister)
	mux.HandleFunc("POST /auth/login", f.handleLogin)
	mux.HandleFunc("POST /auth/refresh", f.handleRefresh)
	mux.HandleFunc("GET /auth/me", f.handleMe)
	for _, kind := range []api.Kind{api.KindVideo, api.KindImage} {
		kind := kind
		prefix := "/" + string(kind)
		mux.HandleFunc("POST "+prefix+"/upload", func(w http.ResponseWriter, r *http.Request) { f.handleUpload(w, r, kind) })
		mux.HandleFunc("GET "+prefix+"/list", func(w http.ResponseWriter, r *http.Request) { f.handleList(w, r, kind) })
		mux.HandleFunc("GET "+prefix+"/history", func(w http.ResponseWriter, r *http.Request) { f.handleHistory(w, r, kind) })
		mux.HandleFunc("POST "+prefix+"/convert", func(w http.ResponseWriter, r *http.Request) { f.handleConvert(w, r, kind) })
		mux.HandleFunc("GET "+prefix+"/status/{id}", func(w http.ResponseWriter, r *http.Request) { f.handleStatus(w, r, kind) })
		mux.HandleFunc("GET "+prefix+"/preview/{id}", func(w http.ResponseWriter, r *http.Request) { f.handleStream(w, r, kind, "preview") })
		mux.HandleFunc("GET "+prefix+"/download/{id}", func(w http.ResponseWriter, r *http.Request) { f.handleStream(w, r, kind, "download") })
	}
	mux.HandleFunc("POST /video/upload/chunk", f.handleChunk)
	mux.HandleFunc("POST /video/upload/complete", f.handleChunkComplete)
	return mux
}

func (f *FakeService) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (f *FakeService) reject(w http.ResponseWriter, status int, detail string) {
	f.writeJSON(w, status, map[string]string{"detail": detail})
}

func (f *FakeService) authorize(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		f.mu.Lock()
		_, ok := f.tokens[strings.TrimPrefix(header, "Bearer ")]
		f.mu.Unlock()
		if ok {
			return true
		}
	}
	if token := r.URL.Query().Get("token"); token != "" {
		f.mu.Lock()
		_, ok := f.tokens[token]
		f.mu.Unlock()
		return ok
	}
	return false
}

func (f *FakeService) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		f.reject(w, http.StatusUnprocessableEntity, "invalid payload")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[payload.Email]; exists {
		f.reject(w, http.StatusBadRequest, "Email already registered")
		return
	}
	f.users[payload.Email] = payload.Password
	f.writeJSON(w, http.StatusOK, api.User{ID: int64(len(f.users)), Email: payload.Email, CreatedAt: time.Now().UTC()})
}

func (f *FakeService) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.reject(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	f.mu.Lock()
	stored, ok := f.users[email]
	f.mu.Unlock()
	if !ok || stored != password {
		f.reject(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	token := f.IssueToken(email)
	f.writeJSON(w, http.StatusOK, api.TokenPair{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		TokenType:    "bearer",
	})
}

func (f *FakeService) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || !strings.HasPrefix(payload.RefreshToken, "refresh-") {
		f.reject(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	email := "refreshed@example.com"
	f.mu.Lock()
	for token, owner := range f.tokens {
		if "refresh-"+token == payload.RefreshToken {
			email = owner
		}
	}
	f.mu.Unlock()
	token := f.IssueToken(email)
	f.writeJSON(w, http.StatusOK, api.TokenPair{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		TokenType:    "bearer",
	})
}

func (f *FakeService) handleMe(w http.ResponseWriter, r *http.Request) {
	if !f.authorize(r) {
		f.reject(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	f.mu.Lock()
	email := f.tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
	f.mu.Unlock()
	f.writeJSON(w, http.StatusOK, api.User{ID: 1, Email: email, CreatedAt: time.Now().UTC()})
}

func (f *FakeService) handleUpload(w http.ResponseWriter, r *http.Request, kind api.Kind) {
	if !f.authorize(r) {
		f.reject(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		f.reject(w, http.StatusUnprocessableEntity, "file field required")
		return
	}
	defer file.Close()
	size, _ := io.Copy(io.Discard, file)

	f.mu.Lock()
	f.nextID++
	asset := api.MediaAsset{
		ID:               f.nextID,
		OriginalFilename: header.Filename,
		FileSize:         size,
		CreatedAt:        time.Now().UTC(),
	}
	f.assets[kind] = append(f.assets[kind], asset)
	f.mu.Unlock()
	f.writeJSON(w, http.StatusOK, asset)
}

func (f *FakeService) handleChunk(w http.ResponseWriter, r *http.Request) {
	if !f.authorize(r) {
		f.reject(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	uploadID := r.FormValue("upload_id")
	if uploadID == "" {
		f.reject(w, http.StatusUnprocessableEntity, "upload_id required")
		return
	}
	chunk, _, err := r.FormFile("chunk")
	if err != nil {
		f.reject(w, http.StatusUnprocessableEntity, "chunk field required")
		return
	}
	defer chunk.Close()
	data, err := io.ReadAll(chunk)
	if err != nil {
		f.reject(w, http.StatusInternalServerError, "read chunk")
		return
	}
	// Chunks arrive strictly in index order from this client, so append
	// suffices for reassembly.
	f.mu.Lock()
	f.chunks[uploadID] = append(f.chunks[uploadID], data...)
	f.mu.Unlock()
	f.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (f *FakeService) handleChunkComplete(w http.ResponseWriter, r *http.Request) {
	if !f.authorize(r) {
		f.reject(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if err := r.ParseForm(); err != nil {
		f.reject(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	uploadID := r.PostFormValue("upload_id")
	filename := r.PostFormValue("original_filename")

	f.mu.Lock()
	data, ok := f.chunks[uploadID]
	delete(f.chunks, uploadID)
	if !ok {
		f.mu.Unlock()
		f.reject(w, http.StatusNotFound, "Upload not found")
		return
	}
	f.nextID++
	asset := api.MediaAsset{
		ID:               f.nextID,
		OriginalFilename: filename,
		FileSize:         int64(len(data)),
		CreatedAt:        time.Now().UTC(),
	}
	f.assets[api.KindVideo] = append(f.assets[api.KindVideo], asset)
	f.mu.Unlock()
	f.writeJSON(w, http.StatusOK, asset)
}

func (f *FakeService) handleList(w http.ResponseWriter, r *http.Request, kind api.Kind) {
	if !f.authorize(r) {
		f.reject(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	f.mu.Lock()
	assets := append([]api.MediaAsset(nil), f.assets[kind]...)
	f.mu.Unlock()
	f.writeJSON(w, http.StatusOK, assets)
}

func (f *FakeService) handleHistory(w http.ResponseWriter, r *http.Request, kind api.Kind) {
	if !f.authorize(r) {
		f.reject(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	f.mu.Lock()
	items := append([]api.HistoryItem(nil), f.history[kind]...)
	f.mu.Unlock()
	f.writeJSON(w, http.StatusOK, items)
}

func (f *FakeService) handleConvert(w http.ResponseWriter, r *http.Request, kind api.Kind) {
	if !f.authorize(r) {
		f.reject(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		f.reject(w, http.StatusUnprocessableEntity, "invalid payload")
		return
	}

	f.mu.Lock()
	f.nextID++
	job := api.ConversionJob{
		ID:     f.nextID,
		Status: api.JobQueued,
	}
	if format, ok := payload["target_format"].(string); ok {
		job.TargetFormat = format
	}
	if id, ok := payload["video_id"].(float64); ok {
		job.VideoID = int64(id)
	}
	if id, ok := payload["image_id"].(float64); ok {
		job.ImageID = int64(id)
	}
	f.jobs[kind][job.ID] = &job
	f.mu.Unlock()
	f.writeJSON(w, http.StatusOK, job)
}

func (f *FakeService) handleStatus(w http.ResponseWriter, r *http.Request, kind api.Kind) {
	if !f.authorize(r) {
		f.reject(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		f.reject(w, http.StatusUnprocessableEntity, "invalid job id")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[id]++
	if script, ok := f.jobScripts[id]; ok && len(script) > 0 {
		snapshot := script[0]
		if len(script) > 1 {
			f.jobScripts[id] = script[1:]
		}
		f.jobs[kind][id] = &snapshot
		f.writeJSON(w, http.StatusOK, snapshot)
		return
	}
	job, ok := f.jobs[kind][id]
	if !ok {
		f.reject(w, http.StatusNotFound, "Conversion not found")
		return
	}
	f.writeJSON(w, http.StatusOK, job)
}

func (f *FakeService) handleStream(w http.ResponseWriter, r *http.Request, kind api.Kind, purpose string) {
	if !f.authorize(r) {
		f.reject(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	id := r.PathValue("id")
	conversionID := r.URL.Query().Get("conversion_id")
	body := fmt.Sprintf("%s-%s-%s", purpose, string(kind), id)
	if conversionID != "" {
		body += "-conv" + conversionID
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write([]byte(body))
}
