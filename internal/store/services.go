package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"codeberg.org/snonux/nori/internal/client"
)

// ServiceStore keeps service descriptors. Names are unique, ignoring case.
type ServiceStore struct {
	db  *sql.DB
	now func() time.Time
}

// Add stores s and returns its row id
func (st *ServiceStore) Add(ctx context.Context, s client.Settings) (string, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return "", errors.New("service name is required")
	}
	if !s.APIType.Valid() {
		return "", fmt.Errorf("%w: %d", client.ErrUnknownAPIType, int(s.APIType))
	}

	blob, err := s.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to encode service: %w", err)
	}

	id := uuid.NewString()
	_, err = st.db.ExecContext(ctx,
		`INSERT INTO services (id, name, api_type, endpoint, settings, created) VALUES (?, ?, ?, ?, ?, ?)`,
		id, s.Name, s.APIType.String(), s.Endpoint, blob, st.now().Unix())
	if isConstraint(err) {
		return "", fmt.Errorf("service %q %w", s.Name, ErrDuplicate)
	}
	if err != nil {
		return "", fmt.Errorf("failed to add service: %w", err)
	}
	return id, nil
}

// List returns every stored service ordered by name
func (st *ServiceStore) List(ctx context.Context) ([]client.Settings, error) {
	rows, err := st.db.QueryContext(ctx, `SELECT settings FROM services ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []client.Settings
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var s client.Settings
		if err := s.UnmarshalBinary(blob); err != nil {
			return nil, fmt.Errorf("failed to decode service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// Get returns the service called name
func (st *ServiceStore) Get(ctx context.Context, name string) (client.Settings, error) {
	var blob []byte
	err := st.db.QueryRowContext(ctx,
		`SELECT settings FROM services WHERE name = ?`, strings.TrimSpace(name)).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return client.Settings{}, fmt.Errorf("service %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return client.Settings{}, fmt.Errorf("failed to get service: %w", err)
	}

	var s client.Settings
	if err := s.UnmarshalBinary(blob); err != nil {
		return client.Settings{}, fmt.Errorf("failed to decode service: %w", err)
	}
	return s, nil
}

// Remove deletes the service called name
func (st *ServiceStore) Remove(ctx context.Context, name string) error {
	res, err := st.db.ExecContext(ctx, `DELETE FROM services WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("failed to remove service: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("service %q: %w", name, ErrNotFound)
	}
	return nil
}
