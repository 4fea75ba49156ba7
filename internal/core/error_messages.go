package core

// error_messages.go maps technical errors to user-facing messages.
//
// Each message carries a code users can quote to support:
//
//	FILE001  file exceeds the upload size limit       "too large"
//	FILE002  file could not be read as a spreadsheet  "invalid spreadsheet"
//	FILE003  file is not an .xlsx workbook            "unsupported file type"
//	FILE004  request carried no file                  "no file provided"
//	FILE005  file has no content                      "empty file"
//	VAL001   dataset failed validation                "dataset rejected"
//	PRED001  prediction service could not be reached  "prediction service unavailable", "connection refused"
//	PRED002  prediction service answered with error  "prediction service returned"
//	PRED003  prediction response was malformed        "invalid prediction response"
//	PRED004  prediction service took too long         "timeout"
//	UPL002   too many submissions in flight           "too many submissions"
//	UPL004   request cancelled                        "context canceled"
//	UPL005   request deadline exceeded                "context deadline exceeded"
//	RATE001  client is rate limited                   "rate limit"
//	ERR000   anything else; check the server log
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File intake
	{
		pattern: "too large",
		msg: UserMessage{
			Message: "O arquivo excede o tamanho máximo permitido",
			Action:  "Divida a planilha em arquivos menores",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "Não foi possível ler a planilha",
			Action:  "Verifique se o arquivo é um XLSX válido e tente novamente",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Por favor, carregue um arquivo XLSX apenas.",
			Action:  "Salve a planilha no formato .xlsx",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "Nenhum arquivo foi selecionado",
			Action:  "Selecione uma planilha XLSX para carregar",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "O arquivo está vazio.",
			Action:  "Carregue uma planilha com cabeçalho e linhas de dados",
			Code:    "FILE005",
		},
	},

	// Validation
	{
		pattern: "dataset rejected",
		msg: UserMessage{
			Message: "A planilha não passou na validação",
			Action:  "Corrija os erros apontados e carregue o arquivo novamente",
			Code:    "VAL001",
		},
	},

	// Prediction service
	{
		pattern: "prediction service unavailable",
		msg: UserMessage{
			Message: "O serviço de predição está indisponível",
			Action:  "Tente novamente em alguns instantes",
			Code:    "PRED001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "O serviço de predição está indisponível",
			Action:  "Tente novamente em alguns instantes",
			Code:    "PRED001",
		},
	},
	{
		pattern: "prediction service returned",
		msg: UserMessage{
			Message: "Erro ao enviar a planilha para a API",
			Action:  "Verifique os dados da planilha ou contate o suporte",
			Code:    "PRED002",
		},
	},
	{
		pattern: "invalid prediction response",
		msg: UserMessage{
			Message: "A resposta do serviço de predição é inválida",
			Action:  "Contate o suporte informando o código",
			Code:    "PRED003",
		},
	},

	// Submission lifecycle. The context errors come before the generic
	// "timeout" pattern so deadline and cancellation keep their own codes.
	{
		pattern: "too many submissions",
		msg: UserMessage{
			Message: "O sistema está processando outras análises",
			Action:  "Aguarde um momento e tente novamente",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "A requisição foi cancelada",
			Action:  "Tente novamente",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "A requisição excedeu o tempo limite",
			Action:  "Tente novamente com uma planilha menor",
			Code:    "UPL005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "O serviço de predição demorou demais para responder",
			Action:  "Tente novamente mais tarde",
			Code:    "PRED004",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Muitas requisições",
			Action:  "Aguarde um momento antes de tentar novamente",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Ocorreu um erro inesperado",
	Action:  "Tente novamente ou contate o suporte",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first pattern match, or the ERR000 fallback.
//
// Example:
//
//	msg := MapError(ErrUnsupportedFileType)
//	// msg.Code == "FILE003"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Código: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Código: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than
// falling through to ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and keeps the original for logging via Unwrap.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
