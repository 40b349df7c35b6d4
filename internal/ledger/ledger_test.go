package ledger

import (
	"testing"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/engine"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/worldstate"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lookup = `{"uuid":"U1","country":"USA","state_province":"CA"}`

func TestLocalConnector(t *testing.T) {
	ctx := t.Context()
	connector := NewLocalConnector(engine.New(), worldstate.NewMemory())

	client, err := connector.Connect(ctx)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Submit(ctx, "importUtilityIdentifier", lookup)
	require.NoError(t, err)

	payload, err := client.Evaluate(ctx, "getUtilityIdentifier", "U1")
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"state_province":"CA"`)

	_, err = client.Evaluate(ctx, "updateUtilityIdentifier", lookup)
	assert.ErrorIs(t, err, carbonaccounting.ErrInvalidArgument)
}

func TestEnvelope(t *testing.T) {
	payload, err := decodeResponse(encodeResponse([]byte(`{"uuid":"U1"}`), nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"uuid":"U1"}`, string(payload))

	_, err = decodeResponse(encodeResponse(nil, &carbonaccounting.OperationErr{
		Operation: "getEmissionsData",
		Err:       carbonaccounting.ErrNotFound,
	}))
	assert.ErrorIs(t, err, carbonaccounting.ErrNotFound)
	assert.Contains(t, err.Error(), "getEmissionsData")

	_, err = decodeResponse([]byte("garbage"))
	assert.ErrorIs(t, err, carbonaccounting.ErrTransport)
}

func TestServerHandle(t *testing.T) {
	ctx := t.Context()
	state := worldstate.NewMemory()
	s := NewServer(nil, engine.New(), state, "", "")
	assert.Equal(t, DefaultSubject, s.subject)
	assert.Equal(t, DefaultQueue, s.queue)

	req, err := json.Marshal(request{Fn: "importUtilityIdentifier", Args: []string{lookup}})
	require.NoError(t, err)
	_, err = decodeResponse(s.handle(ctx, state, req))
	require.NoError(t, err)

	req, err = json.Marshal(request{Fn: "getUtilityIdentifier", Args: []string{"U2"}})
	require.NoError(t, err)
	_, err = decodeResponse(s.handle(ctx, store.ReadOnly(state), req))
	assert.ErrorIs(t, err, carbonaccounting.ErrNotFound)

	_, err = decodeResponse(s.handle(ctx, state, []byte("{")))
	assert.ErrorIs(t, err, carbonaccounting.ErrParse)
}

func TestNATSConnectorUnreachable(t *testing.T) {
	connector := NewNATSConnector("nats://127.0.0.1:1", WithSubject("test"))
	assert.Equal(t, "test", connector.subject)

	_, err := connector.Connect(t.Context())
	assert.ErrorIs(t, err, carbonaccounting.ErrTransport)
}
