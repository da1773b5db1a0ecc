// Package workflow keeps the state carried from the selection step of a module
// relocation to the placement step. State lives in Redis under an opaque token,
// is scoped to the user who started it and expires after the configured TTL.
package workflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/module-swap/pkg/config"
	redisclient "github.com/angelmondragon/module-swap/pkg/redis"
)

const (
	tokenBytes     = 24
	maxTokenLength = 128
)

// ErrNotFound is returned when no usable state exists for a token.
var ErrNotFound = errors.New("workflow state not found")

type stateStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type stateKeyer interface {
	WorkflowKey(token string) string
}

// State is the selection made in the first step.
type State struct {
	UserID    string    `json:"user_id"`
	ModuleID  int64     `json:"module_id"`
	DeviceID  int64     `json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Selection is what a caller stores.
type Selection struct {
	ModuleID int64
	DeviceID int64
}

// Manager issues tokens and persists workflow state.
type Manager struct {
	store stateStore
	keyer stateKeyer
	ttl   time.Duration
	now   func() time.Time
}

// NewManager constructs a workflow manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.WorkflowConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("workflow ttl must be positive")
	}
	return &Manager{
		store: client,
		keyer: client,
		ttl:   cfg.TTL,
		now:   time.Now,
	}, nil
}

// TTL reports how long a stored selection stays valid.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Start stores sel under a fresh token.
func (m *Manager) Start(ctx context.Context, userID string, sel Selection) (string, *State, error) {
	token, err := generateToken()
	if err != nil {
		return "", nil, err
	}
	state, err := m.write(ctx, token, userID, sel)
	if err != nil {
		return "", nil, err
	}
	return token, state, nil
}

// Replace overwrites the selection behind an existing token owned by userID.
func (m *Manager) Replace(ctx context.Context, token, userID string, sel Selection) (*State, error) {
	if _, err := m.Load(ctx, token, userID); err != nil {
		return nil, err
	}
	return m.write(ctx, token, userID, sel)
}

// Load returns the state for token. Missing, expired and foreign state all
// yield ErrNotFound.
func (m *Manager) Load(ctx context.Context, token, userID string) (*State, error) {
	if !validToken(token) {
		return nil, ErrNotFound
	}
	raw, err := m.store.Get(ctx, m.keyer.WorkflowKey(token))
	if err != nil {
		return nil, wrapNotFound(err)
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode workflow state: %w", err)
	}
	if state.UserID != userID {
		return nil, ErrNotFound
	}
	if !state.ExpiresAt.IsZero() && !m.now().Before(state.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &state, nil
}

// Clear drops the state behind token. Clearing an unknown token is not an error.
func (m *Manager) Clear(ctx context.Context, token string) error {
	if !validToken(token) {
		return nil
	}
	return m.store.Del(ctx, m.keyer.WorkflowKey(token))
}

func (m *Manager) write(ctx context.Context, token, userID string, sel Selection) (*State, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	now := m.now().UTC()
	state := &State{
		UserID:    userID,
		ModuleID:  sel.ModuleID,
		DeviceID:  sel.DeviceID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode workflow state: %w", err)
	}
	if err := m.store.Set(ctx, m.keyer.WorkflowKey(token), string(payload), m.ttl); err != nil {
		return nil, err
	}
	return state, nil
}

func validToken(token string) bool {
	token = strings.TrimSpace(token)
	return token != "" && len(token) <= maxTokenLength && !strings.Contains(token, ":")
}

func generateToken() (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating workflow token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redisclient.Nil) {
		return ErrNotFound
	}
	return err
}
