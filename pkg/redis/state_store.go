package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const stateKeyPrefix = "oauth_state:"

// ErrStateNotFound means the state was never issued, already used or expired.
var ErrStateNotFound = errors.New("oauth state not found")

// StateData is what a pending OAuth authorization remembers between redirects.
type StateData struct {
	Provider     string    `json:"provider"`
	CodeVerifier string    `json:"codeVerifier,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// StateStore keeps single-use OAuth state values in Redis.
type StateStore struct {
	ttl time.Duration
}

var (
	setStateValue    = Set
	getDelStateValue = GetDel
)

// NewStateStore creates a store whose entries live for ttl.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{ttl: ttl}
}

// Save records data under state.
func (s *StateStore) Save(ctx context.Context, state string, data *StateData) error {
	if state == "" || data == nil {
		return errors.New("state and data are required")
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := setStateValue(ctx, stateKeyPrefix+state, payload, s.ttl); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// Consume returns the data for state and deletes it in the same round trip.
func (s *StateStore) Consume(ctx context.Context, state string) (*StateData, error) {
	if state == "" {
		return nil, ErrStateNotFound
	}
	raw, err := getDelStateValue(ctx, stateKeyPrefix+state)
	if err != nil {
		if errors.Is(err, ErrNil) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}

	var data StateData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode oauth state: %w", err)
	}
	return &data, nil
}
