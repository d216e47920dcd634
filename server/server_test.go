package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/railtoner/tonerbot/bot/catalog"
	contractx "github.com/railtoner/tonerbot/bot/contract"
	"github.com/railtoner/tonerbot/bot/engine"
	"github.com/railtoner/tonerbot/bot/quote"
	statex "github.com/railtoner/tonerbot/bot/state"
	"github.com/railtoner/tonerbot/pkg/pdf"
)

var quoteNumberPattern = regexp.MustCompile(`Q\d+-[0-9A-F]{6}`)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	store := catalog.NewMemoryStore(catalog.DefaultProducts()...)
	artifacts := quote.NewMemoryArtifactStore()
	eng, err := engine.New(statex.NewMemoryStore(), store, pdf.NewRenderer(), artifacts)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}

	srv, err := New(cfg, eng, store, artifacts, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func postMessage(t *testing.T, handler http.Handler, from, body string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{}
	if from != "" {
		form.Set("From", from)
	}
	if body != "" {
		form.Set("Body", body)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookGreetingReturnsTwiML(t *testing.T) {
	t.Parallel()

	router := newTestServer(t, Config{Mode: ModeTwiML}).Router()
	rec := postMessage(t, router, "whatsapp:+26771000001", "hello")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/xml" {
		t.Fatalf("content type = %q, want text/xml", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Response>") || !strings.Contains(body, "Welcome to RailToner") {
		t.Fatalf("unexpected reply envelope: %q", body)
	}
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	t.Parallel()

	router := newTestServer(t, Config{Mode: ModeTwiML}).Router()

	if rec := postMessage(t, router, "", "hello"); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing From status = %d, want 400", rec.Code)
	}
	if rec := postMessage(t, router, "whatsapp:+26771000001", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing Body status = %d, want 400", rec.Code)
	}
}

func TestQuoteFlowEndToEnd(t *testing.T) {
	t.Parallel()

	router := newTestServer(t, Config{Mode: ModeTwiML, PublicBaseURL: "https://bot.example"}).Router()
	sender := "whatsapp:+26771000002"

	postMessage(t, router, sender, "quote")
	rec := postMessage(t, router, sender, "1x2")

	body := rec.Body.String()
	number := quoteNumberPattern.FindString(body)
	if number == "" {
		t.Fatalf("no quote number in reply: %q", body)
	}
	if !strings.Contains(body, "https://bot.example/quotes/"+number) {
		t.Fatalf("media link missing from reply: %q", body)
	}

	req := httptest.NewRequest(http.MethodGet, "/quotes/"+number, nil)
	got := httptest.NewRecorder()
	router.ServeHTTP(got, req)

	if got.Code != http.StatusOK {
		t.Fatalf("quote retrieval status = %d, want 200", got.Code)
	}
	if ct := got.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q, want application/pdf", ct)
	}
	if !strings.HasPrefix(got.Body.String(), "%PDF") {
		t.Fatal("retrieved document is not a PDF")
	}
}

func TestQuoteRetrievalUnknownNumber(t *testing.T) {
	t.Parallel()

	router := newTestServer(t, Config{Mode: ModeTwiML}).Router()
	req := httptest.NewRequest(http.MethodGet, "/quotes/Q0-FFFFFF", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestProductLookup(t *testing.T) {
	t.Parallel()

	router := newTestServer(t, Config{Mode: ModeTwiML}).Router()

	req := httptest.NewRequest(http.MethodGet, "/products/hp85a", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "HP 85A") {
		t.Fatalf("product payload missing name: %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/products/nope", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

type panickingCatalog struct{}

func (panickingCatalog) FindByCode(context.Context, string) (contractx.Product, error) {
	panic("catalog backend exploded")
}

func (panickingCatalog) FindByCodePrefix(context.Context, string) (contractx.Product, error) {
	panic("catalog backend exploded")
}

func (panickingCatalog) ListAll(context.Context) ([]contractx.Product, error) {
	panic("catalog backend exploded")
}

type recordingTransport struct {
	texts     []string
	documents []string
}

func (tr *recordingTransport) SendText(_ context.Context, _, text string) error {
	tr.texts = append(tr.texts, text)
	return nil
}

func (tr *recordingTransport) SendDocument(_ context.Context, _, documentURL, _ string) error {
	tr.documents = append(tr.documents, documentURL)
	return nil
}

func newPanickingServer(t *testing.T, cfg Config, transport contractx.Transport) *Server {
	t.Helper()

	artifacts := quote.NewMemoryArtifactStore()
	eng, err := engine.New(statex.NewMemoryStore(), panickingCatalog{}, pdf.NewRenderer(), artifacts)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	srv, err := New(cfg, eng, panickingCatalog{}, artifacts, transport)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func TestWebhookPanicDegradesToApologyTwiML(t *testing.T) {
	t.Parallel()

	router := newPanickingServer(t, Config{Mode: ModeTwiML}, nil).Router()
	rec := postMessage(t, router, "whatsapp:+26771000003", "1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Response>") || !strings.Contains(body, "Sorry, an error occurred") {
		t.Fatalf("panic must degrade to apology envelope, got %q", body)
	}
}

func TestWebhookPanicInPushModeStaysPush(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{}
	router := newPanickingServer(t, Config{Mode: ModePush}, transport).Router()
	rec := postMessage(t, router, "whatsapp:+26771000004", "1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "OK" {
		t.Fatalf("push mode must answer a bare OK after a panic, got %q", body)
	}
	if len(transport.texts) != 1 || !strings.Contains(transport.texts[0], "Sorry, an error occurred") {
		t.Fatalf("apology must be pushed to the sender, got %v", transport.texts)
	}
}

func TestIsPushMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		mode string
		want bool
	}{
		{"push", true},
		{" Push ", true},
		{"PUSH", true},
		{"twiml", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsPushMode(tc.mode); got != tc.want {
			t.Fatalf("IsPushMode(%q) = %v, want %v", tc.mode, got, tc.want)
		}
	}
}

func TestNewNormalizesMode(t *testing.T) {
	t.Parallel()

	store := catalog.NewMemoryStore(catalog.DefaultProducts()...)
	artifacts := quote.NewMemoryArtifactStore()
	eng, err := engine.New(statex.NewMemoryStore(), store, pdf.NewRenderer(), artifacts)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}

	srv, err := New(Config{Mode: " TwiML "}, eng, store, artifacts, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.mode != ModeTwiML {
		t.Fatalf("mode = %q, want %q", srv.mode, ModeTwiML)
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	store := catalog.NewMemoryStore(catalog.DefaultProducts()...)
	artifacts := quote.NewMemoryArtifactStore()
	eng, err := engine.New(statex.NewMemoryStore(), store, pdf.NewRenderer(), artifacts)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}

	if _, err := New(Config{Mode: "carrier-pigeon"}, eng, store, artifacts, nil); err == nil {
		t.Fatal("unknown mode must be rejected")
	}
	if _, err := New(Config{Mode: ModePush}, eng, store, artifacts, nil); err == nil {
		t.Fatal("push mode without transport must be rejected")
	}
}
