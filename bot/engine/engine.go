// Package engine is the session-scoped state machine behind the bot:
// it turns one classified inbound message into a session mutation and
// an outbound action.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/railtoner/tonerbot/bot/classify"
	contractx "github.com/railtoner/tonerbot/bot/contract"
	"github.com/railtoner/tonerbot/bot/quote"
	statex "github.com/railtoner/tonerbot/bot/state"
)

type Engine struct {
	sessions  statex.Store
	catalog   contractx.CatalogStore
	renderer  contractx.DocumentRenderer
	artifacts contractx.ArtifactStore

	now func() time.Time
}

type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(
	sessions statex.Store,
	catalog contractx.CatalogStore,
	renderer contractx.DocumentRenderer,
	artifacts contractx.ArtifactStore,
	opts ...Option,
) (*Engine, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if catalog == nil {
		return nil, errors.New("catalog store is required")
	}
	if renderer == nil {
		return nil, errors.New("document renderer is required")
	}
	if artifacts == nil {
		return nil, errors.New("artifact store is required")
	}

	e := &Engine{
		sessions:  sessions,
		catalog:   catalog,
		renderer:  renderer,
		artifacts: artifacts,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Handle processes one inbound message and returns what to send back.
// The per-sender lock is held for the whole read-modify-write, so two
// messages from the same sender never interleave; different senders run
// concurrently. The session is committed before the caller attempts any
// delivery, so a failed send never desynchronizes state.
//
// Handle never returns an error: downstream failures degrade to an
// apology reply so the sender is never left without an answer.
func (e *Engine) Handle(ctx context.Context, senderID, body string) contractx.OutboundAction {
	release := e.sessions.Acquire(senderID)
	defer release()

	now := e.now()
	sess := e.sessions.GetOrCreate(senderID, now)
	intent := classify.Classify(sess.QuoteState, body)

	action := e.dispatch(ctx, sess, intent, body)

	sess.Touch(now)
	e.sessions.Save(senderID, sess)
	return action
}

func (e *Engine) dispatch(ctx context.Context, sess *statex.Session, intent contractx.Intent, body string) contractx.OutboundAction {
	switch intent {
	case contractx.IntentGreeting:
		return textAction(menuMessage)
	case contractx.IntentBrowseCatalog:
		return e.browseCatalog(ctx)
	case contractx.IntentViewCart:
		return e.viewCart(ctx, sess)
	case contractx.IntentPlaceOrder:
		return e.placeOrder(ctx, sess)
	case contractx.IntentRequestHuman:
		return textAction(handoffMessage)
	case contractx.IntentStartQuote:
		return e.startQuote(ctx, sess)
	case contractx.IntentQuoteSelection:
		return e.compileQuote(sess, body)
	case contractx.IntentProductCode:
		return e.addProduct(ctx, sess, body)
	default:
		return textAction(fallbackMessage)
	}
}

func (e *Engine) browseCatalog(ctx context.Context) contractx.OutboundAction {
	products, err := e.catalog.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("catalog listing failed")
		return textAction(ApologyMessage)
	}
	return textAction(catalogMessage(products))
}

func (e *Engine) viewCart(ctx context.Context, sess *statex.Session) contractx.OutboundAction {
	if sess.CartEmpty() {
		return textAction(emptyCartMessage)
	}
	products, total, err := e.resolveCart(ctx, sess)
	if err != nil {
		log.Error().Err(err).Str("sender", sess.SenderID).Msg("cart resolution failed")
		return textAction(ApologyMessage)
	}
	return textAction(cartMessage(products, total))
}

func (e *Engine) placeOrder(ctx context.Context, sess *statex.Session) contractx.OutboundAction {
	if sess.CartEmpty() {
		return textAction(emptyOrderMessage)
	}
	products, total, err := e.resolveCart(ctx, sess)
	if err != nil {
		log.Error().Err(err).Str("sender", sess.SenderID).Msg("order resolution failed")
		return textAction(ApologyMessage)
	}
	sess.ClearCart()
	return textAction(orderMessage(products, total))
}

// resolveCart maps cart codes back to products. Codes no longer present
// in the catalog are dropped silently; only a store failure is an error.
func (e *Engine) resolveCart(ctx context.Context, sess *statex.Session) ([]contractx.Product, decimal.Decimal, error) {
	var products []contractx.Product
	total := decimal.Zero
	for _, code := range sess.Cart {
		p, err := e.catalog.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, contractx.ErrProductNotFound) {
				continue
			}
			return nil, total, err
		}
		products = append(products, p)
		total = total.Add(p.UnitPrice)
	}
	return products, total, nil
}

func (e *Engine) startQuote(ctx context.Context, sess *statex.Session) contractx.OutboundAction {
	snapshot, err := e.catalog.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("quote catalog fetch failed")
		return textAction(ApologyMessage)
	}
	if len(snapshot) == 0 {
		return textAction(ApologyMessage)
	}
	sess.BeginQuote(snapshot)
	return textAction(quoteStartMessage(snapshot))
}

func (e *Engine) compileQuote(sess *statex.Session, body string) contractx.OutboundAction {
	lines := quote.Compile(body, sess.QuoteCatalog)
	if len(lines) == 0 {
		// Lines preserved from an earlier render failure let the sender
		// retry with any reply instead of retyping the selection.
		if len(sess.QuoteItems) > 0 {
			lines = sess.QuoteItems
		} else {
			// Soft failure: re-prompt and stay in the quote sub-dialog.
			return textAction(quoteRepromptMessage)
		}
	}

	now := e.now()
	sess.QuoteItems = lines
	artifact := quote.BuildArtifact(sess.SenderID, lines, now)

	document, err := e.renderer.Render(artifact)
	if err != nil {
		// Quote items stay in the session so the sender can retry
		// without retyping the selection.
		log.Error().Err(err).Str("quote", artifact.Number).Msg("quote render failed")
		return textAction(quoteRenderFailedMessage)
	}
	if err := e.artifacts.Put(artifact, document); err != nil {
		log.Error().Err(err).Str("quote", artifact.Number).Msg("quote store failed")
		return textAction(quoteRenderFailedMessage)
	}

	sess.CompleteQuote()
	return contractx.OutboundAction{
		Text: quoteReadyMessage(artifact),
		Document: &contractx.DocumentRef{
			QuoteNumber: artifact.Number,
			Caption:     "Your quote " + artifact.Number,
		},
	}
}

func (e *Engine) addProduct(ctx context.Context, sess *statex.Session, body string) contractx.OutboundAction {
	candidate := strings.TrimSpace(body)
	p, err := e.catalog.FindByCodePrefix(ctx, candidate)
	if err != nil {
		if errors.Is(err, contractx.ErrProductNotFound) {
			return textAction(fallbackMessage)
		}
		log.Error().Err(err).Str("candidate", candidate).Msg("product lookup failed")
		return textAction(ApologyMessage)
	}
	sess.AddToCart(p.Code)
	return textAction(productAddedMessage(p))
}

func textAction(text string) contractx.OutboundAction {
	return contractx.OutboundAction{Text: text}
}
