// Package assistant relays pasted text and screenshots to a hosted language
// model that extracts reading counts, and returns its answer verbatim.
package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"pdptracker/internal/cache"
	"pdptracker/internal/log"
)

// SystemPrompt instructs the model to extract mammography reading figures.
const SystemPrompt = `Eres un asistente especializado en extraer datos numéricos de textos e imágenes médicas relacionadas con lecturas de mamografías.

Tu trabajo es analizar el contenido que te envíe el usuario y extraer TODOS los números y totales relevantes que encuentres. Esto incluye:
- Número de mamografías leídas (totales o por radiólogo)
- Mamografías pendientes
- Totales por periodo de tiempo
- Cualquier otro dato numérico relevante

Responde SIEMPRE en español y de forma estructurada:
1. Lista cada dato encontrado con su contexto
2. Si hay totales, destácalos al final
3. Sé conciso pero completo

Si el contenido es una imagen (captura de pantalla), extrae todos los números y datos visibles.
Si no encuentras datos numéricos relevantes, indícalo claramente.`

const DefaultMaxTokens = 1024

var ErrNoInput = errors.New("text or image required")

var dataURIPattern = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

// Image is a base64-encoded picture taken from a data URI.
type Image struct {
	MediaType string
	Data      string
}

// Request is a validated analysis request. At least one field is set.
type Request struct {
	Text  string
	Image *Image
}

// Provider sends one request to a model and returns the text of its reply.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, system string, req Request, maxTokens int) (string, error)
}

// ParseDataURI extracts the media type and payload of a base64 data URI.
func ParseDataURI(uri string) (Image, bool) {
	m := dataURIPattern.FindStringSubmatch(uri)
	if m == nil {
		return Image{}, false
	}
	return Image{MediaType: m[1], Data: m[2]}, true
}

// NewRequest validates raw input. A malformed image is dropped; the request
// is rejected only when nothing usable remains.
func NewRequest(text, imageDataURI string) (Request, error) {
	if text == "" && imageDataURI == "" {
		return Request{}, ErrNoInput
	}
	req := Request{Text: text}
	if imageDataURI != "" {
		if img, ok := ParseDataURI(imageDataURI); ok {
			req.Image = &img
		}
	}
	if req.Text == "" && req.Image == nil {
		return Request{}, ErrNoInput
	}
	return req, nil
}

type Option func(*Gateway)

// WithCache serves identical requests from an LRU cache for ttl.
func WithCache(size int, ttl time.Duration) Option {
	return func(g *Gateway) {
		if size > 0 && ttl > 0 {
			g.cache = cache.NewLRUCache[string](size, ttl)
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// Gateway validates requests and forwards them to a Provider.
type Gateway struct {
	provider  Provider
	maxTokens int
	cache     *cache.LRUCache[string]
	log       *log.Logger
}

func NewGateway(p Provider, opts ...Option) *Gateway {
	g := &Gateway{
		provider:  p,
		maxTokens: DefaultMaxTokens,
		log:       log.ForComponent(log.ComponentAssistant),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Cache exposes the response cache for cleanup registration. It is nil when
// caching is disabled.
func (g *Gateway) Cache() *cache.LRUCache[string] {
	return g.cache
}

// Analyze returns the model's answer for the given text and/or image data URI.
func (g *Gateway) Analyze(ctx context.Context, text, imageDataURI string) (string, error) {
	req, err := NewRequest(text, imageDataURI)
	if err != nil {
		return "", err
	}

	key := cacheKey(text, imageDataURI)
	if g.cache != nil {
		if out, ok := g.cache.Get(key); ok {
			g.log.DebugContext(ctx, "Analysis served from cache")
			return out, nil
		}
	}

	start := time.Now()
	out, err := g.provider.Analyze(ctx, SystemPrompt, req, g.maxTokens)
	if err != nil {
		g.log.Op(ctx, log.OpAnalyze, err, "Analysis failed", log.FieldProvider, g.provider.Name())
		return "", fmt.Errorf("%s: %w", g.provider.Name(), err)
	}
	g.log.Op(ctx, log.OpAnalyze, nil, "Analysis completed",
		log.FieldProvider, g.provider.Name(),
		"has_image", req.Image != nil,
		"duration", time.Since(start))

	if g.cache != nil {
		g.cache.Set(key, out)
	}
	return out, nil
}

func cacheKey(text, image string) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(image))
	return hex.EncodeToString(h.Sum(nil))
}
