package dto

type CNPJSearchRequest struct {
	CNPJ string `json:"cnpj" validate:"required"`
}

// CNPJSearchResponse is the normalized shape returned by the lookup proxy.
type CNPJSearchResponse struct {
	CNPJ     string `json:"cnpj"`
	Nome     string `json:"nome"`
	Endereco string `json:"endereco"`
	Telefone string `json:"telefone,omitempty"`
}
