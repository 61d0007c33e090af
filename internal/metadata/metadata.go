// Package metadata extrae título e imagen de preview de una URL
// arbitraria usando las convenciones estándar de metadata de página:
// Open Graph, Twitter cards y el <title> como último recurso.
//
// El HTML se parsea con golang.org/x/net/html: nunca se ejecuta ningún
// script de la página. Los resultados se cachean con TTL para no
// golpear el mismo sitio en cada tipeo.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/donpapitoskey/lista-de-regalos/internal/metrics"
	"github.com/donpapitoskey/lista-de-regalos/internal/observability/logger"
)

const (
	userAgent   = "Mozilla/5.0 (compatible; GiftListBot/1.0)"
	maxBodySize = 2 << 20 // 2MB de HTML alcanza para el <head>
)

// Motivos de fallo de un lookup.
const (
	MotivoURLInvalida = "url_invalida"
	MotivoInaccesible = "inaccesible"
	MotivoNoHTML      = "contenido_no_html"
)

// LookupError es el fallo tipado de un lookup de metadata: una URL
// inalcanzable o una respuesta no-HTML es un error esperado, no un
// crash.
type LookupError struct {
	Motivo string
	Err    error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("metadata %s: %v", e.Motivo, e.Err)
	}
	return "metadata " + e.Motivo
}

func (e *LookupError) Unwrap() error { return e.Err }

// Metadata es el par título/imagen extraído de una página.
type Metadata struct {
	Titulo    string
	URLImagen string
}

// Resolver hace el fetch y la extracción, con cache TTL por URL.
type Resolver struct {
	client *http.Client
	cache  *gocache.Cache
	log    *zap.Logger
}

// NewResolver crea un resolver. timeout limita cada fetch; ttl define
// cuánto vive cada resultado en el cache.
func NewResolver(timeout, ttl time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Resolver{
		client: &http.Client{Timeout: timeout},
		cache:  gocache.New(ttl, time.Minute),
		log:    logger.Named("metadata"),
	}
}

// Resolve obtiene la metadata de la URL dada.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*Metadata, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &LookupError{Motivo: MotivoURLInvalida, Err: err}
	}

	if v, ok := r.cache.Get(rawURL); ok {
		metrics.MetadataLookupsTotal.WithLabelValues("cache").Inc()
		m := v.(Metadata)
		return &m, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &LookupError{Motivo: MotivoURLInvalida, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.MetadataLookupsTotal.WithLabelValues("error").Inc()
		return nil, &LookupError{Motivo: MotivoInaccesible, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.MetadataLookupsTotal.WithLabelValues("error").Inc()
		return nil, &LookupError{Motivo: MotivoInaccesible, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "text/html") && !strings.Contains(ct, "application/xhtml") {
		metrics.MetadataLookupsTotal.WithLabelValues("error").Inc()
		return nil, &LookupError{Motivo: MotivoNoHTML, Err: fmt.Errorf("content-type %q", ct)}
	}

	m, err := extract(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.MetadataLookupsTotal.WithLabelValues("error").Inc()
		return nil, &LookupError{Motivo: MotivoNoHTML, Err: err}
	}

	r.cache.SetDefault(rawURL, *m)
	metrics.MetadataLookupsTotal.WithLabelValues("ok").Inc()
	r.log.Debug("metadata resuelta", zap.String("url", rawURL), zap.String("titulo", m.Titulo))
	return m, nil
}

// extract recorre el árbol HTML juntando los candidatos de título e
// imagen. Precedencia: og:* → twitter:* → og:image:url / <title>.
func extract(body io.Reader) (*Metadata, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, err
	}

	var (
		ogTitle, twTitle, plainTitle string
		ogImage, twImage, ogImageURL string
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				prop, name, content := metaAttrs(n)
				switch {
				case prop == "og:title":
					ogTitle = content
				case prop == "og:image":
					ogImage = content
				case prop == "og:image:url":
					ogImageURL = content
				case name == "twitter:title":
					twTitle = content
				case name == "twitter:image":
					twImage = content
				}
			case "title":
				if plainTitle == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					plainTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	m := &Metadata{}
	switch {
	case ogTitle != "":
		m.Titulo = ogTitle
	case twTitle != "":
		m.Titulo = twTitle
	default:
		m.Titulo = plainTitle
	}
	switch {
	case ogImage != "":
		m.URLImagen = ogImage
	case twImage != "":
		m.URLImagen = twImage
	default:
		m.URLImagen = ogImageURL
	}
	return m, nil
}

// metaAttrs extrae property, name y content de un <meta>.
func metaAttrs(n *html.Node) (prop, name, content string) {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "property":
			prop = strings.ToLower(a.Val)
		case "name":
			name = strings.ToLower(a.Val)
		case "content":
			content = a.Val
		}
	}
	return prop, name, content
}
