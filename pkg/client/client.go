// Package client es el cliente Go de la API de regalos, incluida la
// lógica de sincronización realtime (Syncer).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Regalo es la representación wire de un regalo.
type Regalo struct {
	ID          int     `json:"id"`
	Nombre      string  `json:"nombre"`
	URL         *string `json:"url,omitempty"`
	URLImagen   *string `json:"url_imagen,omitempty"`
	LugarCompra *string `json:"lugarCompra,omitempty"`
	Tomado      bool    `json:"tomado"`
}

// Persona es la representación wire de una persona.
type Persona struct {
	ID      int      `json:"id"`
	Nombre  string   `json:"nombre"`
	Regalos []Regalo `json:"regalos"`
}

// APIError es la respuesta de error del servicio.
type APIError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

// Client habla con la API de recursos y con el relay.
type Client struct {
	baseURL string
	http    *http.Client

	// clientID es el id asignado por el relay al suscribirse; se manda
	// en X-Client-ID al emitir para que el relay no nos devuelva
	// nuestros propios eventos. El Syncer lo escribe desde su goroutine
	// mientras la app emite desde las suyas, de ahí el mutex.
	mu       sync.Mutex
	clientID string
}

// New crea un cliente contra la URL base dada.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// ClientID retorna el id de relay asignado (vacío si nunca se conectó).
func (c *Client) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

func (c *Client) setClientID(id string) {
	c.mu.Lock()
	c.clientID = id
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := c.ClientID(); id != "" {
		req.Header.Set("X-Client-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// ───────────────────── Personas ─────────────────────

func (c *Client) ListPersonas(ctx context.Context) ([]Persona, error) {
	var out []Persona
	err := c.do(ctx, http.MethodGet, "/api/personas", nil, &out)
	return out, err
}

func (c *Client) CreatePersona(ctx context.Context, nombre string) (*Persona, error) {
	var out Persona
	err := c.do(ctx, http.MethodPost, "/api/personas", map[string]string{"nombre": nombre}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPersona(ctx context.Context, id int) (*Persona, error) {
	var out Persona
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/personas/%d", id), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePersona(ctx context.Context, id int, nombre string) (*Persona, error) {
	var out Persona
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/personas/%d", id), map[string]string{"nombre": nombre}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePersona(ctx context.Context, id int) (*Persona, error) {
	var out Persona
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/personas/%d", id), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ───────────────────── Regalos ─────────────────────

// RegaloInput es el input de creación de un regalo.
type RegaloInput struct {
	Nombre      string `json:"nombre"`
	URL         string `json:"url,omitempty"`
	URLImagen   string `json:"url_imagen,omitempty"`
	LugarCompra string `json:"lugarCompra,omitempty"`
}

// RegaloPatch es un update parcial; los campos nil se omiten del body
// y quedan intactos en el servidor.
type RegaloPatch struct {
	Nombre      *string `json:"nombre,omitempty"`
	URL         *string `json:"url,omitempty"`
	URLImagen   *string `json:"url_imagen,omitempty"`
	LugarCompra *string `json:"lugarCompra,omitempty"`
	Tomado      *bool   `json:"tomado,omitempty"`
}

func (c *Client) ListRegalos(ctx context.Context, personaID int) ([]Regalo, error) {
	var out []Regalo
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/personas/%d/regalos", personaID), nil, &out)
	return out, err
}

func (c *Client) CreateRegalo(ctx context.Context, personaID int, in RegaloInput) (*Regalo, error) {
	var out Regalo
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/personas/%d/regalos", personaID), in, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRegalo(ctx context.Context, personaID, regaloID int) (*Regalo, error) {
	var out Regalo
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/personas/%d/regalos/%d", personaID, regaloID), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRegalo(ctx context.Context, personaID, regaloID int, patch RegaloPatch) (*Regalo, error) {
	var out Regalo
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/personas/%d/regalos/%d", personaID, regaloID), patch, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRegalo(ctx context.Context, personaID, regaloID int) (*Regalo, error) {
	var out Regalo
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/personas/%d/regalos/%d", personaID, regaloID), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ───────────────────── Relay ─────────────────────

// Emit publica un evento de dominio en el relay. Es fire-and-forget:
// el relay nunca reporta fallo de entrega. Debe llamarse solo después
// de que la mutación correspondiente fue persistida con éxito.
func (c *Client) Emit(ctx context.Context, evento string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	body := map[string]json.RawMessage{
		"evento": json.RawMessage(fmt.Sprintf("%q", evento)),
		"data":   raw,
	}
	return c.do(ctx, http.MethodPost, "/events", body, nil)
}
