package service

import "errors"

// Erros de negócio. Os handlers traduzem cada um para um status HTTP.
var (
	ErrInvalidInput       = errors.New("dados inválidos")
	ErrEmailAlreadyUsed   = errors.New("já existe uma conta com este e-mail")
	ErrInvalidCredentials = errors.New("e-mail ou senha incorretos")
	ErrLicenseNotFound    = errors.New("licença não encontrada")
	ErrDeviceMismatch     = errors.New("licença vinculada a outro dispositivo")
	ErrWebhookStripe      = errors.New("erro ao processar webhook da stripe")
	ErrPaymentUnavailable = errors.New("pagamentos indisponíveis no momento")
)
