package stationstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/hydro-agent/internal/domain/station"
)

// ValkeyStore shares directory generations between processes through Valkey.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a store. ttl bounds how long a stale generation
// may be served to a cold process; zero keeps it forever.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "stations"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

// Load implements station.Store.
func (s *ValkeyStore) Load(ctx context.Context) (station.Generation, bool, error) {
	cmd := s.client.B().Get().Key(s.generationKey()).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return station.Generation{}, false, nil
		}
		return station.Generation{}, false, err
	}
	var gen station.Generation
	if err := json.Unmarshal([]byte(payload), &gen); err != nil {
		return station.Generation{}, false, err
	}
	return gen, true, nil
}

// Save implements station.Store.
func (s *ValkeyStore) Save(ctx context.Context, gen station.Generation) error {
	payload, err := json.Marshal(gen)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.generationKey()).Value(string(payload))
	var cmd valkey.Completed
	if s.ttl > 0 {
		ttl := s.ttl
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) generationKey() string {
	return fmt.Sprintf("%s:directory", s.prefix)
}

var _ station.Store = (*ValkeyStore)(nil)
