package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrCNPJNotFound is returned when the public registry has no record for the
// requested CNPJ.
var ErrCNPJNotFound = errors.New("cnpj não encontrado")

// BrasilAPICNPJ is the subset of the public registry response this service
// consumes.
type BrasilAPICNPJ struct {
	CNPJ                      string `json:"cnpj"`
	RazaoSocial               string `json:"razao_social"`
	NomeFantasia              string `json:"nome_fantasia"`
	DescricaoTipoDeLogradouro string `json:"descricao_tipo_de_logradouro"`
	Logradouro                string `json:"logradouro"`
	Numero                    string `json:"numero"`
	Complemento               string `json:"complemento"`
	Bairro                    string `json:"bairro"`
	Municipio                 string `json:"municipio"`
	UF                        string `json:"uf"`
	CEP                       string `json:"cep"`
	DDDTelefone1              string `json:"ddd_telefone_1"`
}

// Nome resolves the display name: razão social first, fantasy name as
// fallback.
func (r *BrasilAPICNPJ) Nome() string {
	if r.RazaoSocial != "" {
		return r.RazaoSocial
	}
	return r.NomeFantasia
}

// Endereco joins the non-empty address parts with ", ".
func (r *BrasilAPICNPJ) Endereco() string {
	parts := []string{
		r.DescricaoTipoDeLogradouro, r.Logradouro, r.Numero, r.Complemento,
		r.Bairro, r.Municipio, r.UF, r.CEP,
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

// BrasilAPIClient performs the single pass-through GET against the public
// CNPJ registry. No caching and no retries by design — failures surface to
// the caller as typed errors.
type BrasilAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewBrasilAPIClient(baseURL string) *BrasilAPIClient {
	return &BrasilAPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// LookupCNPJ fetches registry data for a cleaned 14-digit CNPJ.
func (c *BrasilAPIClient) LookupCNPJ(ctx context.Context, digits string) (*BrasilAPICNPJ, error) {
	url := fmt.Sprintf("%s/api/cnpj/v1/%s", c.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brasilapi: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrCNPJNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("brasilapi: status %d", resp.StatusCode)
	}

	var data BrasilAPICNPJ
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("brasilapi: decode: %w", err)
	}
	return &data, nil
}
