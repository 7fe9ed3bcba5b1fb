package envelope

import (
	"encoding/json"
	"errors"
	"fmt"

	"nexus/internal/domain"
)

// Parse decodes one frame. A frame with an unknown type yields (nil, nil).
// Invalid JSON, a missing type, or a field of the wrong JSON type is reported
// as domain.ErrProtocol.
func Parse(data []byte) (Envelope, error) {
	var head struct {
		Type *Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProtocol, err)
	}
	if head.Type == nil {
		return nil, fmt.Errorf("%w: envelope has no type", domain.ErrProtocol)
	}

	switch *head.Type {
	case KindSessionInfo:
		return decode[SessionInfo](data)
	case KindUserJoined:
		return decode[UserJoined](data)
	case KindUserLeft:
		return decode[UserLeft](data)
	case KindSyncStart:
		return decode[SyncStart](data)
	case KindSyncProgress:
		return decode[SyncProgress](data)
	case KindSyncComplete:
		return decode[SyncComplete](data)
	case KindSyncFailed:
		return decode[SyncFailed](data)
	case KindMessage:
		return decode[Message](data)
	case KindPing:
		return Ping{}, nil
	case KindPong:
		return Pong{}, nil
	case KindError:
		return decode[Error](data)
	case KindAlreadySynced:
		return AlreadySynced{}, nil
	case KindRequestSync:
		return RequestSync{}, nil
	}
	return nil, nil
}

func decode[T Envelope](data []byte) (Envelope, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrProtocol, v.Kind(), err)
	}
	return v, nil
}

// Encode serialises e with its "type" field set from e.Kind().
func Encode(e Envelope) ([]byte, error) {
	if e == nil {
		return nil, errors.New("encode nil envelope")
	}
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Kind(), err)
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Kind(), err)
	}
	kind, err := json.Marshal(e.Kind())
	if err != nil {
		return nil, err
	}
	fields["type"] = kind
	return json.Marshal(fields)
}
