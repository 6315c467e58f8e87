package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "shipgraph/backend/pkg/errors"
	"shipgraph/backend/pkg/logger"
)

// Repository is the Neo4j implementation of Store
type Repository struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewRepository wraps an existing driver. An empty database uses the server default.
func NewRepository(driver neo4j.DriverWithContext, database string) *Repository {
	return &Repository{
		driver:   driver,
		database: database,
		logger:   logger.Get(),
	}
}

// Connect opens a driver and verifies the server is reachable
func Connect(ctx context.Context, uri, user, password, database string) (*Repository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	return NewRepository(driver, database), nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Apply runs the mutations inside one explicit transaction. The explicit
// form is used instead of ExecuteWrite so the driver never replays a fragment.
func (r *Repository) Apply(ctx context.Context, mutations []Mutation) error {
	if len(mutations) == 0 {
		return nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return apperrors.NewGraphWrite("begin transaction", err)
	}

	for _, m := range mutations {
		result, err := tx.Run(ctx, m.Cypher, m.Params)
		if err == nil {
			_, err = result.Consume(ctx)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.logger.Warn("Rollback failed",
					zap.String("mutation", m.Kind.String()),
					zap.Error(rbErr),
				)
			}
			return apperrors.NewGraphWrite(Summary(m.Cypher), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewGraphWrite("commit", err)
	}

	r.logger.Debug("Transaction committed", zap.Int("mutations", len(mutations)))
	return nil
}

// Query runs a read statement in an auto-commit read session
func (r *Repository) Query(ctx context.Context, q Query) ([]Row, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, q.Cypher, q.Params)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(Summary(q.Cypher), err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(Summary(q.Cypher), err)
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, recordToRow(record))
	}
	return rows, nil
}

var schemaStatements = []string{
	`CREATE CONSTRAINT ship_name IF NOT EXISTS FOR (s:Ship) REQUIRE s.name IS UNIQUE`,
	`CREATE CONSTRAINT category_name IF NOT EXISTS FOR (c:Category) REQUIRE c.name IS UNIQUE`,
	`CREATE INDEX document_identity IF NOT EXISTS FOR (d:Document) ON (d.name, d.version)`,
	`CREATE INDEX question_number IF NOT EXISTS FOR (q:Question) ON (q.number)`,
	`CREATE INDEX question_text IF NOT EXISTS FOR (q:Question) ON (q.text)`,
}

// EnsureSchema creates the uniqueness constraints and lookup indexes the
// MERGE statements rely on. Every statement is attempted; failures are joined.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	var errs []error
	for _, stmt := range schemaStatements {
		result, err := session.Run(ctx, stmt, nil)
		if err == nil {
			_, err = result.Consume(ctx)
		}
		if err != nil {
			r.logger.Warn("Schema statement failed", zap.String("statement", stmt), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", stmt, err))
			continue
		}
		r.logger.Info("Schema statement applied", zap.String("statement", stmt))
	}
	return errors.Join(errs...)
}
