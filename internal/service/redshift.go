package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/schematizer/internal/avro"
	"github.com/amaumene/schematizer/internal/convert"
	"github.com/amaumene/schematizer/internal/domain"
)

// RegisterRedshiftRequest carries a schema registration expressed as
// Redshift DDL. Statements must hold exactly one CREATE TABLE.
type RegisterRedshiftRequest struct {
	Statements       []string
	Namespace        string
	Source           string
	SourceOwnerEmail string
}

// RegisterRedshiftSchema converts a CREATE TABLE statement to an avro
// record and registers it like RegisterAvroSchema. Column comments become
// field docs, so undocumented tables are rejected the same way
// undocumented avro schemas are.
func (s *RegistryService) RegisterRedshiftSchema(ctx context.Context, req RegisterRedshiftRequest) (*domain.AvroSchema, error) {
	if err := validateSourceInput(req.Namespace, req.Source, req.SourceOwnerEmail); err != nil {
		return nil, err
	}

	schema, err := redshiftToAvro(req.Statements)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.register(ctx, schema, req.Namespace, req.Source, req.SourceOwnerEmail, nil)
}

func redshiftToAvro(statements []string) (avro.Schema, error) {
	if len(statements) != 1 {
		return nil, fmt.Errorf("exactly one CREATE TABLE statement is required, got %d: %w", len(statements), domain.ErrInvalidInput)
	}

	table, err := convert.ParseCreateTable(statements[0])
	if err != nil {
		return nil, fmt.Errorf("parsing create table: %v: %w", err, domain.ErrInvalidInput)
	}

	converter, err := convert.For(convert.KindRedshift, convert.KindAvro)
	if err != nil {
		return nil, err
	}

	record, err := converter.Convert(table)
	if err != nil {
		var unsupported *convert.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			return nil, fmt.Errorf("converting table %q: %w", table.Name, err)
		}
		// Anything else the converter rejects, such as a default that
		// does not fit the column's Avro type, is bad client input.
		return nil, fmt.Errorf("converting table %q: %v: %w", table.Name, err, domain.ErrInvalidInput)
	}
	return record, nil
}
