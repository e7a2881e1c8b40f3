// Package postgres is the pgx-backed ProfileStore adapter.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/provider"
)

// ProfileStore persists profile records in the profiles table.
type ProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore instantiates the store.
func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) Get(ctx context.Context, principalID string) (*domain.ProfileRecord, error) {
	const query = `
        SELECT role, person_type, full_name, cpf, legal_name, cnpj, responsible_name, responsible_cpf,
               phone, cep, street, number, complement, neighborhood, city, state,
               deleted, created_at, updated_at
        FROM profiles WHERE principal_id=$1`
	var record domain.ProfileRecord
	err := s.pool.QueryRow(ctx, query, principalID).Scan(
		&record.Role,
		&record.PersonType,
		&record.FullName,
		&record.CPF,
		&record.LegalName,
		&record.CNPJ,
		&record.ResponsibleName,
		&record.ResponsibleCPF,
		&record.Phone,
		&record.Address.CEP,
		&record.Address.Street,
		&record.Address.Number,
		&record.Address.Complement,
		&record.Address.Neighborhood,
		&record.Address.City,
		&record.Address.State,
		&record.Deleted,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, provider.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *ProfileStore) Upsert(ctx context.Context, principalID string, record *domain.ProfileRecord) error {
	const query = `
        INSERT INTO profiles (principal_id, role, person_type, full_name, cpf, legal_name, cnpj,
                              responsible_name, responsible_cpf, phone, cep, street, number,
                              complement, neighborhood, city, state, deleted)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
        ON CONFLICT (principal_id) DO UPDATE SET
            full_name=EXCLUDED.full_name, cpf=EXCLUDED.cpf, legal_name=EXCLUDED.legal_name,
            cnpj=EXCLUDED.cnpj, responsible_name=EXCLUDED.responsible_name,
            responsible_cpf=EXCLUDED.responsible_cpf, phone=EXCLUDED.phone,
            cep=EXCLUDED.cep, street=EXCLUDED.street, number=EXCLUDED.number,
            complement=EXCLUDED.complement, neighborhood=EXCLUDED.neighborhood,
            city=EXCLUDED.city, state=EXCLUDED.state, updated_at=NOW()`
	_, err := s.pool.Exec(ctx, query,
		principalID,
		record.Role,
		record.PersonType,
		record.FullName,
		record.CPF,
		record.LegalName,
		record.CNPJ,
		record.ResponsibleName,
		record.ResponsibleCPF,
		record.Phone,
		record.Address.CEP,
		record.Address.Street,
		record.Address.Number,
		record.Address.Complement,
		record.Address.Neighborhood,
		record.Address.City,
		record.Address.State,
		record.Deleted,
	)
	return err
}

// SetDeleted flips the soft-delete flag. The row is never removed so
// historical ticket attribution stays intact.
func (s *ProfileStore) SetDeleted(ctx context.Context, principalID string) error {
	const query = `UPDATE profiles SET deleted=TRUE, updated_at=NOW() WHERE principal_id=$1`
	cmd, err := s.pool.Exec(ctx, query, principalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return provider.ErrNotFound
	}
	return nil
}
