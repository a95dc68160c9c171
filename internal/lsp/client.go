package lsp

import (
	"encoding/json"

	"github.com/pkg/errors"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Server-originated traffic. Calls go through the endpoint's outbound
// registry; the done callback runs when the client replies, or with an
// error if the call is evicted before any reply arrives.

// ShowMessage asks the client to display a message to the user.
func (h *Handlers) ShowMessage(messageType protocol.MessageType, message string) {
	params := &protocol.ShowMessageParams{Type: messageType, Message: message}
	if err := h.ep.Notify(protocol.ServerWindowShowMessage, params); err != nil {
		log.Errorf("failed to send window/showMessage: %s", err)
	}
}

// LogMessage sends a log entry to the client's output channel.
func (h *Handlers) LogMessage(messageType protocol.MessageType, message string) {
	params := &protocol.LogMessageParams{Type: messageType, Message: message}
	if err := h.ep.Notify(protocol.ServerWindowLogMessage, params); err != nil {
		log.Errorf("failed to send window/logMessage: %s", err)
	}
}

// ApplyEdit asks the client to apply a workspace edit. done receives whether
// the client applied it.
func (h *Handlers) ApplyEdit(label string, edit protocol.WorkspaceEdit, done func(applied bool, err error)) error {
	params := &protocol.ApplyWorkspaceEditParams{
		Label: &label,
		Edit:  edit,
	}
	return h.ep.Call(protocol.ServerWorkspaceApplyEdit, params, func(result json.RawMessage, err error) {
		if err != nil {
			done(false, err)
			return
		}
		var response struct {
			Applied       bool    `json:"applied"`
			FailureReason *string `json:"failureReason"`
		}
		if err := json.Unmarshal(result, &response); err != nil {
			done(false, errors.Wrap(err, "failed to decode applyEdit response"))
			return
		}
		if !response.Applied && response.FailureReason != nil {
			done(false, errors.New(*response.FailureReason))
			return
		}
		done(response.Applied, nil)
	})
}

// Configuration fetches configuration sections from the client. done
// receives one raw value per requested item.
func (h *Handlers) Configuration(items []protocol.ConfigurationItem, done func(values []json.RawMessage, err error)) error {
	params := &protocol.ConfigurationParams{Items: items}
	return h.ep.Call(protocol.ServerWorkspaceConfiguration, params, func(result json.RawMessage, err error) {
		if err != nil {
			done(nil, err)
			return
		}
		var values []json.RawMessage
		if err := json.Unmarshal(result, &values); err != nil {
			done(nil, errors.Wrap(err, "failed to decode configuration response"))
			return
		}
		if len(values) != len(items) {
			done(nil, errors.Errorf("configuration response has %d values for %d items", len(values), len(items)))
			return
		}
		done(values, nil)
	})
}

// progressParams mirrors the wire shape of $/progress and
// window/workDoneProgress/create; tokens here are always strings.
type progressParams struct {
	Token string `json:"token"`
	Value any    `json:"value,omitempty"`
}

// CreateWorkDoneProgress asks the client to allocate a progress token. done
// runs once the token is usable (or not).
func (h *Handlers) CreateWorkDoneProgress(token string, done func(err error)) error {
	params := &progressParams{Token: token}
	return h.ep.Call("window/workDoneProgress/create", params, func(result json.RawMessage, err error) {
		done(err)
	})
}

// Progress reports progress against a previously created token.
func (h *Handlers) Progress(token string, value any) {
	params := &progressParams{Token: token, Value: value}
	if err := h.ep.Notify("$/progress", params); err != nil {
		log.Errorf("failed to send $/progress: %s", err)
	}
}
