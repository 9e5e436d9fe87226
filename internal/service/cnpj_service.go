package service

import (
	"context"
	"errors"

	"github.com/pedrosazl/trust-reclaim-aid/internal/cnpj"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/infra"
)

// ErrLookupUnavailable signals an upstream registry failure (bad gateway),
// as opposed to a missing record.
var ErrLookupUnavailable = errors.New("serviço de consulta de CNPJ indisponível")

type CNPJService interface {
	// Lookup proxies the public registry and normalizes the response.
	Lookup(ctx context.Context, rawCNPJ string) (*dto.CNPJSearchResponse, error)
}

type cnpjService struct {
	client *infra.BrasilAPIClient
	cb     *infra.CircuitBreaker
}

func NewCNPJService(client *infra.BrasilAPIClient, cb *infra.CircuitBreaker) CNPJService {
	return &cnpjService{client: client, cb: cb}
}

// Lookup validates the CNPJ shape locally, then queries the registry through
// the circuit breaker. Responses are remapped to the app's shape: nome falls
// back from razão social to nome fantasia, and the address parts join into a
// single line skipping empties.
func (s *cnpjService) Lookup(ctx context.Context, rawCNPJ string) (*dto.CNPJSearchResponse, error) {
	if !cnpj.Validate(rawCNPJ) {
		return nil, ErrInvalidCNPJ
	}
	digits := cnpj.Clean(rawCNPJ)

	var data *infra.BrasilAPICNPJ
	err := s.cb.Execute(func() error {
		resp, err := s.client.LookupCNPJ(ctx, digits)
		if err != nil {
			if errors.Is(err, infra.ErrCNPJNotFound) {
				// A miss is a valid upstream answer, not a failure to count
				// against the breaker.
				data = nil
				return nil
			}
			return err
		}
		data = resp
		return nil
	})
	if err != nil {
		return nil, ErrLookupUnavailable
	}
	if data == nil {
		return nil, infra.ErrCNPJNotFound
	}

	return &dto.CNPJSearchResponse{
		CNPJ:     cnpj.Format(digits),
		Nome:     data.Nome(),
		Endereco: data.Endereco(),
		Telefone: data.DDDTelefone1,
	}, nil
}
