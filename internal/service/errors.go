package service

import "errors"

// Sentinel errors handlers translate into HTTP status codes.
var (
	ErrExchangeNotFound = errors.New("solicitação não encontrada")
	ErrItemNotFound     = errors.New("item não encontrado")
	ErrProductNotFound  = errors.New("produto não encontrado")
	ErrAlreadyDecided   = errors.New("solicitação já foi aprovada ou rejeitada")
	ErrNoValidItems     = errors.New("nenhum item válido na solicitação")
	ErrInvalidCNPJ      = errors.New("CNPJ inválido")
)
