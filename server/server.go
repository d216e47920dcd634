// Package server wires the inbound webhook and retrieval endpoints.
package server

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	contractx "github.com/railtoner/tonerbot/bot/contract"
	"github.com/railtoner/tonerbot/bot/engine"
)

const (
	ModeTwiML = "twiml"
	ModePush  = "push"
)

type Config struct {
	Addr          string `split_words:"true" default:":8080"`
	PublicBaseURL string `split_words:"true" default:"http://localhost:8080"`
	Mode          string `split_words:"true" default:"twiml"`
}

type Server struct {
	engine    *engine.Engine
	catalog   contractx.CatalogStore
	artifacts contractx.ArtifactStore
	transport contractx.Transport

	mode          string
	publicBaseURL string
}

func New(
	cfg Config,
	eng *engine.Engine,
	catalog contractx.CatalogStore,
	artifacts contractx.ArtifactStore,
	transport contractx.Transport,
) (*Server, error) {
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	if catalog == nil {
		return nil, errors.New("catalog store is required")
	}
	if artifacts == nil {
		return nil, errors.New("artifact store is required")
	}

	mode := normalizeMode(cfg.Mode)
	if mode != ModeTwiML && mode != ModePush {
		return nil, fmt.Errorf("unknown server mode %q", cfg.Mode)
	}
	if mode == ModePush && transport == nil {
		return nil, errors.New("push mode requires a transport")
	}

	return &Server{
		engine:        eng,
		catalog:       catalog,
		artifacts:     artifacts,
		transport:     transport,
		mode:          mode,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
	}, nil
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/quotes/{number}", s.handleQuote).Methods(http.MethodGet)
	r.HandleFunc("/products/{code}", s.handleProduct).Methods(http.MethodGet)
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "🤖 Toner Bot is running!")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// normalizeMode folds case and whitespace in the configured mode and
// defaults to TwiML when unset.
func normalizeMode(mode string) string {
	m := strings.ToLower(strings.TrimSpace(mode))
	if m == "" {
		return ModeTwiML
	}
	return m
}

// IsPushMode reports whether the configured mode selects out-of-band
// push delivery. Callers deciding whether to build a transport must use
// this rather than comparing the raw config value.
func IsPushMode(mode string) bool {
	return normalizeMode(mode) == ModePush
}

// handleWebhook accepts one form-encoded inbound message. The reply is
// either an inline TwiML envelope or a bare 200 after a push delivery.
// A panic degrades to the generic apology so the messaging provider
// never sees an unanswered message.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}
	senderID := strings.TrimSpace(r.PostFormValue("From"))
	body := r.PostFormValue("Body")
	if senderID == "" {
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body) == "" {
		http.Error(w, "missing Body", http.StatusBadRequest)
		return
	}

	// senderID is bound before the recover so a push-mode deployment
	// still answers with its usual bare 200 after a panic.
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("sender", senderID).Msg("webhook handler panicked")
			s.respond(r, w, senderID, contractx.OutboundAction{Text: engine.ApologyMessage})
		}
	}()

	log.Info().Str("sender", senderID).Msg("inbound message")
	action := s.engine.Handle(r.Context(), senderID, body)
	s.respond(r, w, senderID, action)
}

func (s *Server) respond(r *http.Request, w http.ResponseWriter, senderID string, action contractx.OutboundAction) {
	if s.mode == ModePush && s.transport != nil && senderID != "" {
		s.deliver(r, senderID, action)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
		return
	}
	writeTwiML(w, action, s.documentURL(action))
}

// deliver pushes the reply out-of-band. Failures are logged and the
// webhook still returns success so the provider does not retry.
func (s *Server) deliver(r *http.Request, senderID string, action contractx.OutboundAction) {
	ctx := r.Context()
	if action.Text != "" {
		if err := s.transport.SendText(ctx, senderID, action.Text); err != nil {
			log.Error().Err(err).Str("sender", senderID).Msg("text delivery failed")
		}
	}
	if action.Document != nil {
		if err := s.transport.SendDocument(ctx, senderID, s.documentURL(action), action.Document.Caption); err != nil {
			log.Error().Err(err).Str("sender", senderID).Str("quote", action.Document.QuoteNumber).Msg("document delivery failed")
		}
	}
}

func (s *Server) documentURL(action contractx.OutboundAction) string {
	if action.Document == nil {
		return ""
	}
	return s.publicBaseURL + "/quotes/" + action.Document.QuoteNumber
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]
	document, err := s.artifacts.GetBytes(number)
	if err != nil {
		if errors.Is(err, contractx.ErrArtifactNotFound) {
			http.Error(w, "quote not found", http.StatusNotFound)
			return
		}
		http.Error(w, "quote retrieval failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", number+".pdf"))
	_, _ = w.Write(document)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	p, err := s.catalog.FindByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, contractx.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("code", code).Msg("product lookup failed")
		http.Error(w, "product retrieval failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

type twimlResponse struct {
	XMLName  xml.Name       `xml:"Response"`
	Messages []twimlMessage `xml:"Message"`
}

type twimlMessage struct {
	Body  string `xml:"Body"`
	Media string `xml:"Media,omitempty"`
}

func writeTwiML(w http.ResponseWriter, action contractx.OutboundAction, documentURL string) {
	msg := twimlMessage{Body: action.Text, Media: documentURL}
	payload, err := xml.Marshal(twimlResponse{Messages: []twimlMessage{msg}})
	if err != nil {
		http.Error(w, "reply encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, xml.Header)
	_, _ = w.Write(payload)
}
