package ledger

import (
	"fmt"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"

	"github.com/goccy/go-json"
)

type request struct {
	Fn   string   `json:"fn"`
	Args []string `json:"args"`
}

type envelope struct {
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *remoteError    `json:"error,omitempty"`
}

type remoteError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func encodeResponse(payload []byte, err error) []byte {
	env := envelope{}
	if err != nil {
		env.Error = &remoteError{Kind: carbonaccounting.Kind(err), Message: err.Error()}
	} else {
		env.Payload = payload
	}

	data, err := json.Marshal(env)
	if err != nil {
		data, _ = json.Marshal(envelope{Error: &remoteError{Kind: "Internal", Message: err.Error()}})
	}
	return data
}

// decodeResponse returns the payload of a reply, or the remote failure
// rebuilt as the matching sentinel error.
func decodeResponse(data []byte) ([]byte, error) {
	env := envelope{}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed ledger reply: %s", carbonaccounting.ErrTransport, err.Error())
	}
	if env.Error != nil {
		return nil, carbonaccounting.KindError(env.Error.Kind, env.Error.Message)
	}
	return env.Payload, nil
}
