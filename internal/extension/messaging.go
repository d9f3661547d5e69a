package extension

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Action é o campo "action" das mensagens trocadas entre popup, content script e background.
type Action string

const (
	ActionShowOverlay   Action = "showOverlay"
	ActionTogglePanel   Action = "togglePanel"
	ActionOpenWorkspace Action = "openWorkspace"
)

type Message struct {
	Action Action `json:"action"`
}

// Response é sempre {success, error}; erros nunca escapam como panic ou exceção.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type ActionHandler func(ctx context.Context) error

// Router despacha mensagens para o handler registrado na ação.
type Router struct {
	handlers map[Action]ActionHandler
}

func NewRouter() *Router {
	return &Router{handlers: map[Action]ActionHandler{}}
}

func (r *Router) Handle(action Action, h ActionHandler) {
	r.handlers[action] = h
}

// Dispatch executa o handler da ação. Um panic no handler vira {success:false}.
func (r *Router) Dispatch(ctx context.Context, msg Message) (resp Response) {
	h, ok := r.handlers[msg.Action]
	if !ok {
		return Response{Success: false, Error: fmt.Sprintf("ação desconhecida: %q", msg.Action)}
	}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Panic no handler de mensagem", "action", msg.Action, "panic", rec)
			resp = Response{Success: false, Error: fmt.Sprintf("falha ao executar %s", msg.Action)}
		}
	}()
	if err := h(ctx); err != nil {
		return Response{Success: false, Error: err.Error()}
	}
	return Response{Success: true}
}

// DispatchJSON decodifica a mensagem crua e devolve a resposta já codificada.
func (r *Router) DispatchJSON(ctx context.Context, raw []byte) []byte {
	var msg Message
	resp := Response{Success: false, Error: "mensagem inválida"}
	if err := json.Unmarshal(raw, &msg); err == nil {
		resp = r.Dispatch(ctx, msg)
	}
	out, _ := json.Marshal(resp)
	return out
}
