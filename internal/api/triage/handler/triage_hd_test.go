package triageHandler

import (
	triageRepository "PanicButton/internal/api/triage/repository"
	triageService "PanicButton/internal/api/triage/service"
	"PanicButton/internal/middleware"
	"PanicButton/pkg/archive"
	jwtPkg "PanicButton/pkg/jwt"
	"PanicButton/pkg/llm"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func assessmentJSON(score int, call911 bool) string {
	return fmt.Sprintf(`{"overall_tone_urgency":{"score":%d,"rationale":"caller sounds scared"},`+
		`"keywords_and_topics":["help"],"emergency_type":"assault",`+
		`"recommended_actions":{"911_immediate_help":%t,"save_encounter":true,"alert_emergency_contact":true,"advise_responders":false},`+
		`"summary":"someone is following the caller"}`, score, call911)
}

type stubGenerator struct {
	mu       sync.Mutex
	response string
	err      error
}

func (g *stubGenerator) GenerateText(context.Context, string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.response, g.err
}

func (g *stubGenerator) set(response string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.response, g.err = response, err
}

type testServer struct {
	app       *fiber.App
	generator *stubGenerator
	signer    jwtPkg.IJWT
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store, err := archive.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	signer, err := jwtPkg.New("test-secret")
	if err != nil {
		t.Fatal(err)
	}

	generator := &stubGenerator{response: assessmentJSON(8, true)}
	svc := triageService.New(triageService.Dependencies{
		Log:           log,
		Repository:    triageRepository.New(nil, time.Hour, log),
		Generator:     generator,
		Archives:      store,
		FinalizeGrace: 50 * time.Millisecond,
	})

	mw := middleware.New(log, signer)
	app := fiber.New()
	app.Use(mw.NewRequestIDMiddleware())
	h := New(log, validator.New(), mw, svc)
	h.pingInterval = time.Hour
	h.Start(app.Group("/api/v1"))

	return &testServer{app: app, generator: generator, signer: signer}
}

func (s *testServer) token(t *testing.T, id string) string {
	t.Helper()
	token, _, err := s.signer.Sign(map[string]interface{}{"id": id, "email": id + "@example.com"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (s *testServer) json(t *testing.T, method, path, token, body string, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	resp := s.do(t, method, path, token, reader, fiber.MIMEApplicationJSON)
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type analyzeBody struct {
	Analysis   string `json:"analysis"`
	IncidentID string `json:"incidentId"`
	Kind       string `json:"kind"`
	Decision   struct {
		UrgencyScore   *int `json:"urgencyScore"`
		ShouldAutoFire bool `json:"shouldAutoFire"`
		AutoFired      bool `json:"autoFired"`
	} `json:"decision"`
	Evaluation *struct {
		Fired   bool `json:"fired"`
		Archive *struct {
			Name        string `json:"name"`
			Emergency   bool   `json:"emergency"`
			DownloadURL string `json:"download_url"`
		} `json:"archive"`
	} `json:"evaluation"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details"`
}

func TestAnalyzeAutoFiresAndServesArchive(t *testing.T) {
	s := newTestServer(t)

	var res analyzeBody
	status := s.json(t, http.MethodPost, "/api/v1/triage/analyze", "",
		`{"transcript":"help me someone is following me","location":{"latitude":33.749,"longitude":-84.388}}`, &res)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if res.Kind != "parsed" || res.Decision.UrgencyScore == nil || *res.Decision.UrgencyScore != 8 {
		t.Fatalf("unexpected analysis %+v", res)
	}
	if res.Evaluation == nil || !res.Evaluation.Fired || res.Evaluation.Archive == nil || !res.Evaluation.Archive.Emergency {
		t.Fatalf("expected the emergency sequence to fire, got %+v", res.Evaluation)
	}
	if !res.Decision.AutoFired || res.Decision.ShouldAutoFire {
		t.Errorf("decision not updated after firing: %+v", res.Decision)
	}

	name := res.Evaluation.Archive.Name
	if !strings.HasPrefix(name, "EMERGENCY_") {
		t.Errorf("unexpected archive name %q", name)
	}
	if want := "/api/v1/triage/incidents/" + res.IncidentID + "/archives/" + name; res.Evaluation.Archive.DownloadURL != want {
		t.Errorf("download url = %q, want %q", res.Evaluation.Archive.DownloadURL, want)
	}

	resp := s.do(t, http.MethodGet, res.Evaluation.Archive.DownloadURL, "", nil, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/zip" {
		t.Fatalf("download: got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	data, _ := io.ReadAll(resp.Body)
	members, err := archive.Read(data)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, m := range members {
		names[m.Name] = true
	}
	if !names["emergency_metadata.txt"] || !names["analysis.txt"] {
		t.Errorf("unexpected members %v", names)
	}

	var again struct {
		Fired        bool `json:"fired"`
		AlreadyFired bool `json:"alreadyFired"`
	}
	if status := s.json(t, http.MethodPost, "/api/v1/triage/incidents/"+res.IncidentID+"/evaluate", "", "", &again); status != http.StatusOK {
		t.Fatalf("evaluate: got %d", status)
	}
	if again.Fired || !again.AlreadyFired {
		t.Errorf("second evaluation must not fire: %+v", again)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	s := newTestServer(t)

	var empty errorBody
	if status := s.json(t, http.MethodPost, "/api/v1/triage/analyze", "", `{"transcript":"   "}`, &empty); status != http.StatusBadRequest {
		t.Errorf("empty transcript: expected 400, got %d", status)
	}
	if empty.Success || empty.Code != "EMPTY_TRANSCRIPT" {
		t.Errorf("unexpected body %+v", empty)
	}

	var invalid errorBody
	if status := s.json(t, http.MethodPost, "/api/v1/triage/analyze", "", `{"transcript":"help","location":{"latitude":123,"longitude":0}}`, &invalid); status != http.StatusBadRequest {
		t.Errorf("invalid latitude: expected 400, got %d", status)
	}

	s.generator.set("", &llm.UpstreamError{Provider: "gemini", Status: 429, Message: "quota exhausted"})
	var upstream errorBody
	if status := s.json(t, http.MethodPost, "/api/v1/triage/analyze", "", `{"transcript":"help"}`, &upstream); status != http.StatusBadGateway {
		t.Fatalf("upstream failure: expected 502, got %d", status)
	}
	if upstream.Code != "CLASSIFICATION_FAILED" || !strings.Contains(upstream.Details, "quota exhausted") {
		t.Errorf("expected upstream details, got %+v", upstream)
	}
}

func TestIncidentOwnershipAndActions(t *testing.T) {
	s := newTestServer(t)
	s.generator.set(assessmentJSON(5, false), nil)
	owner := s.token(t, "owner")

	var res analyzeBody
	if status := s.json(t, http.MethodPost, "/api/v1/triage/analyze", owner, `{"transcript":"I feel uneasy"}`, &res); status != http.StatusOK {
		t.Fatalf("analyze: got %d", status)
	}
	if res.Evaluation != nil && res.Evaluation.Fired {
		t.Fatal("low urgency must not fire")
	}
	base := "/api/v1/triage/incidents/" + res.IncidentID

	if status := s.json(t, http.MethodGet, base, s.token(t, "stranger"), "", nil); status != http.StatusNotFound {
		t.Errorf("other user: expected 404, got %d", status)
	}
	if status := s.json(t, http.MethodGet, base, owner, "", nil); status != http.StatusOK {
		t.Errorf("owner: expected 200, got %d", status)
	}

	var call struct {
		Message   string `json:"message"`
		Simulated bool   `json:"simulated"`
	}
	if status := s.json(t, http.MethodPost, base+"/actions/call", owner, "", &call); status != http.StatusOK {
		t.Fatalf("call: got %d", status)
	}
	if call.Message == "" {
		t.Error("expected a call message")
	}

	var save struct {
		AlreadySaved bool `json:"alreadySaved"`
	}
	if status := s.json(t, http.MethodPost, base+"/actions/save", owner, "", &save); status != http.StatusCreated {
		t.Fatalf("save: expected 201, got %d", status)
	}
	if status := s.json(t, http.MethodPost, base+"/actions/save", owner, "", &save); status != http.StatusOK || !save.AlreadySaved {
		t.Errorf("second save: got %d %+v", status, save)
	}

	var alert struct {
		Delivery struct {
			Channel string `json:"channel"`
			Status  string `json:"status"`
		} `json:"delivery"`
	}
	if status := s.json(t, http.MethodPost, base+"/actions/alert", owner, `{"destination":"Friend@Example.com"}`, &alert); status != http.StatusOK {
		t.Fatalf("alert: got %d", status)
	}
	if alert.Delivery.Channel != "email" || alert.Delivery.Status != "simulated" {
		t.Errorf("unexpected delivery %+v", alert.Delivery)
	}

	var bad errorBody
	if status := s.json(t, http.MethodPost, base+"/actions/alert", owner, `{"destination":"not a contact"}`, &bad); status != http.StatusBadRequest {
		t.Errorf("invalid destination: expected 400, got %d", status)
	}
}

func TestAttachRecording(t *testing.T) {
	s := newTestServer(t)
	s.generator.set(assessmentJSON(3, false), nil)

	var res analyzeBody
	if status := s.json(t, http.MethodPost, "/api/v1/triage/analyze", "", `{"transcript":"testing"}`, &res); status != http.StatusOK {
		t.Fatalf("analyze: got %d", status)
	}

	upload := func(contentType string) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="audio"; filename="recording.webm"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("webm-bytes"))
		mw.Close()
		return s.do(t, http.MethodPost, "/api/v1/triage/incidents/"+res.IncidentID+"/recording", "", &buf, mw.FormDataContentType())
	}

	resp := upload("audio/webm")
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("audio upload: expected 201, got %d", resp.StatusCode)
	}

	resp = upload("image/png")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("image upload: expected 400, got %d", resp.StatusCode)
	}
}

func TestDownloadArchiveOwnership(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, "owner")

	var res analyzeBody
	if status := s.json(t, http.MethodPost, "/api/v1/triage/analyze", owner, `{"transcript":"help me"}`, &res); status != http.StatusOK {
		t.Fatalf("analyze: got %d", status)
	}
	if res.Evaluation == nil || res.Evaluation.Archive == nil {
		t.Fatalf("expected an emergency archive, got %+v", res.Evaluation)
	}
	url := res.Evaluation.Archive.DownloadURL

	var body errorBody
	if status := s.json(t, http.MethodGet, url, s.token(t, "stranger"), "", &body); status != http.StatusNotFound {
		t.Errorf("stranger: expected 404, got %d", status)
	}
	if body.Code != "INCIDENT_NOT_FOUND" {
		t.Errorf("stranger must not learn the archive exists, got %+v", body)
	}
	if status := s.json(t, http.MethodGet, url, "", "", nil); status != http.StatusNotFound {
		t.Errorf("anonymous: expected 404, got %d", status)
	}

	resp := s.do(t, http.MethodGet, url, owner, nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("owner: expected 200, got %d", resp.StatusCode)
	}

	// another caller's incident cannot be used to reach this archive
	var other analyzeBody
	if status := s.json(t, http.MethodPost, "/api/v1/triage/analyze", "", `{"transcript":"help"}`, &other); status != http.StatusOK {
		t.Fatalf("analyze: got %d", status)
	}
	crossed := "/api/v1/triage/incidents/" + other.IncidentID + "/archives/" + res.Evaluation.Archive.Name
	if status := s.json(t, http.MethodGet, crossed, "", "", &body); status != http.StatusNotFound || body.Code != "ARCHIVE_NOT_FOUND" {
		t.Errorf("foreign archive name: got %d %+v", status, body)
	}
}

func TestDownloadArchiveErrors(t *testing.T) {
	s := newTestServer(t)
	s.generator.set(assessmentJSON(3, false), nil)

	var res analyzeBody
	if status := s.json(t, http.MethodPost, "/api/v1/triage/analyze", "", `{"transcript":"testing"}`, &res); status != http.StatusOK {
		t.Fatalf("analyze: got %d", status)
	}
	base := "/api/v1/triage/incidents/" + res.IncidentID + "/archives/"

	var body errorBody
	if status := s.json(t, http.MethodGet, base+"panic_encounter_1.zip", "", "", &body); status != http.StatusNotFound {
		t.Errorf("missing archive: expected 404, got %d", status)
	}
	if status := s.json(t, http.MethodGet, base+"secrets.txt", "", "", &body); status != http.StatusBadRequest {
		t.Errorf("invalid name: expected 400, got %d", status)
	}
	if status := s.json(t, http.MethodGet, "/api/v1/triage/incidents/missing/archives/panic_encounter_1.zip", "", "", &body); status != http.StatusNotFound || body.Code != "INCIDENT_NOT_FOUND" {
		t.Errorf("missing incident: got %d %+v", status, body)
	}
}

func TestAnalyzeIgnoresRecordingURL(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Write([]byte("internal-secret"))
	}))
	defer target.Close()

	s := newTestServer(t)

	var res analyzeBody
	body := fmt.Sprintf(`{"transcript":"help","recordingUrl":%q}`, target.URL+"/latest/meta-data")
	if status := s.json(t, http.MethodPost, "/api/v1/triage/analyze", "", body, &res); status != http.StatusOK {
		t.Fatalf("analyze: got %d", status)
	}
	if res.Evaluation == nil || res.Evaluation.Archive == nil {
		t.Fatalf("expected an emergency archive, got %+v", res.Evaluation)
	}

	resp := s.do(t, http.MethodGet, res.Evaluation.Archive.DownloadURL, "", nil, "")
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	members, err := archive.Read(data)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range members {
		if m.Name == "recording.webm" || strings.Contains(string(m.Data), "internal-secret") {
			t.Errorf("archive must not carry fetched content, found %s", m.Name)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 0 {
		t.Errorf("server must not dial client supplied URLs, got %d requests", hits)
	}
}

func TestSessionWebSocket(t *testing.T) {
	s := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		_ = s.app.Listener(ln)
	}()
	defer s.app.Shutdown()

	url := "ws://" + ln.Addr().String() + "/api/v1/triage/session/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	send := func(frame string) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatal(err)
		}
	}

	type serverFrame struct {
		Type       string       `json:"type"`
		State      string       `json:"state"`
		IncidentID string       `json:"incidentId"`
		Analysis   *analyzeBody `json:"analysis"`
		Message    string       `json:"message"`
	}

	read := func() serverFrame {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var frame serverFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatal(err)
		}
		return frame
	}

	send(`{"type":"partial","text":"too early"}`)
	if frame := read(); frame.Type != "error" || frame.State != "idle" {
		t.Fatalf("expected an error frame in idle, got %+v", frame)
	}

	send(`{"type":"start"}`)
	started := read()
	if started.Type != "state" || started.State != "recording" || started.IncidentID == "" {
		t.Fatalf("unexpected start frame %+v", started)
	}

	send(`{"type":"stop","location":{"latitude":95,"longitude":-74}}`)
	if frame := read(); frame.Type != "error" || frame.State != "recording" || frame.IncidentID != started.IncidentID || frame.Message != "location coordinates are out of range" {
		t.Fatalf("expected an invalid location error frame, got %+v", frame)
	}

	send(`{"type":"partial","text":"someone is"}`)
	send(`{"type":"final","text":"following me","location":{"latitude":40.7,"longitude":-74}}`)

	var analysis, notification *serverFrame
	for analysis == nil || notification == nil {
		frame := read()
		switch frame.Type {
		case "analysis":
			analysis = &frame
		case "notification":
			notification = &frame
		case "error":
			t.Fatalf("unexpected error frame %+v", frame)
		}
	}

	if analysis.IncidentID != started.IncidentID || analysis.Analysis == nil || analysis.Analysis.Kind != "parsed" {
		t.Errorf("unexpected analysis frame %+v", analysis)
	}
	if notification.IncidentID != started.IncidentID || notification.Message == "" {
		t.Errorf("unexpected notification frame %+v", notification)
	}

	var incident struct {
		Transcript string `json:"transcript"`
	}
	if status := s.json(t, http.MethodGet, "/api/v1/triage/incidents/"+started.IncidentID, "", "", &incident); status != http.StatusOK {
		t.Fatalf("get incident: got %d", status)
	}
	if incident.Transcript != "someone is following me" {
		t.Errorf("unexpected transcript %q", incident.Transcript)
	}
}
