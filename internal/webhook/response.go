package webhook

import (
	"net/http"

	"brincafacil/lib/api/response"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeMethodNotAllowed
	OutcomeBadRequest
	OutcomeUnauthorized
	OutcomeInternalError
)

const (
	MsgMethodNotAllowed = "Método não permitido"
	MsgInvalidToken     = "Token inválido"
	MsgInvalidSignature = "Assinatura inválida"
	MsgMissingEmail     = "E-mail não fornecido"
	MsgInvalidEmail     = "E-mail inválido"
	MsgMalformedBody    = "JSON inválido"
	MsgBodyTooLarge     = "Corpo da requisição muito grande"
	MsgAccessGranted    = "Acesso liberado"
	MsgEventReceived    = "Evento recebido"
	MsgGrantFailed      = "Erro ao liberar acesso"
)

var statusCodes = map[Outcome]int{
	OutcomeSuccess:          http.StatusOK,
	OutcomeMethodNotAllowed: http.StatusMethodNotAllowed,
	OutcomeBadRequest:       http.StatusBadRequest,
	OutcomeUnauthorized:     http.StatusUnauthorized,
	OutcomeInternalError:    http.StatusInternalServerError,
}

func (o Outcome) StatusCode() int {
	if code, ok := statusCodes[o]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeMethodNotAllowed:
		return "method_not_allowed"
	case OutcomeBadRequest:
		return "bad_request"
	case OutcomeUnauthorized:
		return "unauthorized"
	default:
		return "internal_error"
	}
}

// Response is what every platform adapter writes back: a status code and a JSON body.
type Response struct {
	Outcome Outcome
	Status  int
	Body    response.Response
}

type ResultData struct {
	Email  string `json:"email,omitempty"`
	Status string `json:"status,omitempty"`
}

func newResponse(o Outcome, body response.Response) Response {
	return Response{Outcome: o, Status: o.StatusCode(), Body: body}
}

func MethodNotAllowed() Response {
	return newResponse(OutcomeMethodNotAllowed, response.Error(MsgMethodNotAllowed))
}

func BadRequest(message string) Response {
	return newResponse(OutcomeBadRequest, response.Error(message))
}

func Unauthorized(message string) Response {
	return newResponse(OutcomeUnauthorized, response.Error(message))
}

func Success(message string, data *ResultData) Response {
	var payload interface{}
	if data != nil {
		payload = data
	}
	return newResponse(OutcomeSuccess, response.Ok(message, payload))
}

// InternalError never carries the underlying error; callers log it instead.
func InternalError(message string) Response {
	return newResponse(OutcomeInternalError, response.Error(message))
}
