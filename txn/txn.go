// Package txn implements the transaction statement builders (spec §4.7
// "Transactions", C9): start/commit/rollback, autocommit and isolation
// level toggles, and the deferred-constraints no-op hook. Each builder is
// traced with OpenTelemetry so callers can correlate generated transaction
// control statements with the surrounding request span.
package txn

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fathiraz/sqlgen/dialect"
	"github.com/fathiraz/sqlgen/logging"
)

var tracer = otel.Tracer("github.com/fathiraz/sqlgen/txn")

// logger receives a Debug entry each time StartTransactionQuery builds a
// START TRANSACTION or SAVEPOINT statement; the other builders do not log.
// Defaults to a no-op so callers that never call SetLogger pay nothing
// for it.
var logger logging.Logger = logging.NewNoOpLogger()

// SetLogger installs l as the package-wide logger for the transaction
// builders.
func SetLogger(l logging.Logger) {
	if l == nil {
		l = logging.NewNoOpLogger()
	}
	logger = l
}

// Transaction describes one transaction/savepoint frame (spec §4.7's `tx`
// argument): a name (used as the savepoint identifier when nested) and an
// optional parent establishing nesting.
type Transaction struct {
	Name   string
	Parent *Transaction
}

// IsNested reports whether this transaction frame is a savepoint inside an
// outer transaction.
func (t *Transaction) IsNested() bool {
	return t != nil && t.Parent != nil
}

func forceQuote(d dialect.Dialect, name string) string {
	return d.QuoteIdentifier(name, true)
}

// StartTransactionQuery emits START TRANSACTION, or SAVEPOINT <name> when
// tx is nested.
func StartTransactionQuery(ctx context.Context, d dialect.Dialect, tx *Transaction) string {
	_, span := tracer.Start(ctx, "txn.StartTransactionQuery", trace.WithAttributes(
		attribute.Bool("sqlgen.transaction.nested", tx.IsNested()),
	))
	defer span.End()

	logger.Debug(ctx, "txn: start transaction", logging.Bool("nested", tx.IsNested()))
	if tx.IsNested() {
		return "SAVEPOINT " + forceQuote(d, tx.Name) + ";"
	}
	return "START TRANSACTION;"
}

// CommitTransactionQuery emits COMMIT, or "" for a nested (savepoint)
// transaction, which has no commit statement of its own.
func CommitTransactionQuery(ctx context.Context, tx *Transaction) string {
	_, span := tracer.Start(ctx, "txn.CommitTransactionQuery", trace.WithAttributes(
		attribute.Bool("sqlgen.transaction.nested", tx.IsNested()),
	))
	defer span.End()

	if tx.IsNested() {
		return ""
	}
	return "COMMIT;"
}

// RollbackTransactionQuery emits ROLLBACK TO SAVEPOINT <name> when nested,
// else ROLLBACK.
func RollbackTransactionQuery(ctx context.Context, d dialect.Dialect, tx *Transaction) string {
	_, span := tracer.Start(ctx, "txn.RollbackTransactionQuery", trace.WithAttributes(
		attribute.Bool("sqlgen.transaction.nested", tx.IsNested()),
	))
	defer span.End()

	if tx.IsNested() {
		return "ROLLBACK TO SAVEPOINT " + forceQuote(d, tx.Name) + ";"
	}
	return "ROLLBACK;"
}

// SetAutocommitQuery emits SET AUTOCOMMIT = {0,1}, or "" inside a nested
// transaction (autocommit is meaningless for a savepoint).
func SetAutocommitQuery(ctx context.Context, tx *Transaction, enabled bool) string {
	_, span := tracer.Start(ctx, "txn.SetAutocommitQuery")
	defer span.End()

	if tx.IsNested() {
		return ""
	}
	if enabled {
		return "SET AUTOCOMMIT = 1;"
	}
	return "SET AUTOCOMMIT = 0;"
}

// IsolationLevel is the closed set of standard SQL isolation levels.
type IsolationLevel string

const (
	ReadUncommitted IsolationLevel = "READ UNCOMMITTED"
	ReadCommitted   IsolationLevel = "READ COMMITTED"
	RepeatableRead  IsolationLevel = "REPEATABLE READ"
	Serializable    IsolationLevel = "SERIALIZABLE"
)

// SetIsolationLevelQuery emits SET TRANSACTION ISOLATION LEVEL <level>, or
// "" inside a nested transaction.
func SetIsolationLevelQuery(ctx context.Context, tx *Transaction, level IsolationLevel) string {
	_, span := tracer.Start(ctx, "txn.SetIsolationLevelQuery", trace.WithAttributes(
		attribute.String("sqlgen.transaction.isolation_level", string(level)),
	))
	defer span.End()

	if tx.IsNested() {
		return ""
	}
	return "SET TRANSACTION ISOLATION LEVEL " + string(level) + ";"
}

// DeferConstraintsQuery is a no-op at the abstract layer (spec §4.7:
// "deferConstraintsQuery / setConstraint* are no-ops at the abstract
// layer (PostgreSQL overrides)"). The PostgreSQL override is inline: for
// that dialect it returns SET CONSTRAINTS ALL DEFERRED.
func DeferConstraintsQuery(ctx context.Context, d dialect.Dialect) string {
	_, span := tracer.Start(ctx, "txn.DeferConstraintsQuery")
	defer span.End()

	if d.Name() == "postgres" {
		return "SET CONSTRAINTS ALL DEFERRED;"
	}
	return ""
}

// SetConstraintsQuery is the companion override for re-enabling immediate
// constraint checking; a no-op outside PostgreSQL.
func SetConstraintsQuery(ctx context.Context, d dialect.Dialect, deferred bool) string {
	_, span := tracer.Start(ctx, "txn.SetConstraintsQuery")
	defer span.End()

	if d.Name() != "postgres" {
		return ""
	}
	if deferred {
		return "SET CONSTRAINTS ALL DEFERRED;"
	}
	return "SET CONSTRAINTS ALL IMMEDIATE;"
}
