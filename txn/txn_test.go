package txn_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fathiraz/sqlgen/dialect"
	"github.com/fathiraz/sqlgen/txn"
)

type TxnSuite struct {
	suite.Suite
	ctx context.Context
	d   dialect.Dialect
}

func (s *TxnSuite) SetupTest() {
	s.ctx = context.Background()
	s.d = dialect.NewMySQL()
}

func TestTxnSuite(t *testing.T) {
	suite.Run(t, new(TxnSuite))
}

func (s *TxnSuite) TestStartTransactionTopLevel() {
	s.Equal("START TRANSACTION;", txn.StartTransactionQuery(s.ctx, s.d, &txn.Transaction{Name: "tx1"}))
}

func (s *TxnSuite) TestStartTransactionNestedEmitsSavepoint() {
	outer := &txn.Transaction{Name: "tx1"}
	inner := &txn.Transaction{Name: "sp1", Parent: outer}
	s.Equal("SAVEPOINT `sp1`;", txn.StartTransactionQuery(s.ctx, s.d, inner))
}

func (s *TxnSuite) TestCommitNestedIsNoop() {
	outer := &txn.Transaction{Name: "tx1"}
	inner := &txn.Transaction{Name: "sp1", Parent: outer}
	s.Equal("COMMIT;", txn.CommitTransactionQuery(s.ctx, outer))
	s.Equal("", txn.CommitTransactionQuery(s.ctx, inner))
}

func (s *TxnSuite) TestRollbackNestedGoesToSavepoint() {
	outer := &txn.Transaction{Name: "tx1"}
	inner := &txn.Transaction{Name: "sp1", Parent: outer}
	s.Equal("ROLLBACK;", txn.RollbackTransactionQuery(s.ctx, s.d, outer))
	s.Equal("ROLLBACK TO SAVEPOINT `sp1`;", txn.RollbackTransactionQuery(s.ctx, s.d, inner))
}

func (s *TxnSuite) TestSetAutocommit() {
	outer := &txn.Transaction{Name: "tx1"}
	s.Equal("SET AUTOCOMMIT = 1;", txn.SetAutocommitQuery(s.ctx, outer, true))
	s.Equal("SET AUTOCOMMIT = 0;", txn.SetAutocommitQuery(s.ctx, outer, false))

	inner := &txn.Transaction{Name: "sp1", Parent: outer}
	s.Equal("", txn.SetAutocommitQuery(s.ctx, inner, true))
}

func (s *TxnSuite) TestSetIsolationLevel() {
	outer := &txn.Transaction{Name: "tx1"}
	s.Equal("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE;", txn.SetIsolationLevelQuery(s.ctx, outer, txn.Serializable))

	inner := &txn.Transaction{Name: "sp1", Parent: outer}
	s.Equal("", txn.SetIsolationLevelQuery(s.ctx, inner, txn.Serializable))
}

func (s *TxnSuite) TestDeferConstraintsIsPostgresOnly() {
	s.Equal("", txn.DeferConstraintsQuery(s.ctx, dialect.NewMySQL()))
	s.Equal("SET CONSTRAINTS ALL DEFERRED;", txn.DeferConstraintsQuery(s.ctx, dialect.NewPostgres()))
}

func (s *TxnSuite) TestSetConstraintsQueryPostgresOnly() {
	s.Equal("", txn.SetConstraintsQuery(s.ctx, dialect.NewMySQL(), true))
	s.Equal("SET CONSTRAINTS ALL DEFERRED;", txn.SetConstraintsQuery(s.ctx, dialect.NewPostgres(), true))
	s.Equal("SET CONSTRAINTS ALL IMMEDIATE;", txn.SetConstraintsQuery(s.ctx, dialect.NewPostgres(), false))
}
