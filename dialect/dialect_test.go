package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fathiraz/sqlgen/dialect"
)

type DialectSuite struct {
	suite.Suite
}

func TestDialectSuite(t *testing.T) {
	suite.Run(t, new(DialectSuite))
}

func (s *DialectSuite) TestQuoteIdentifierPerDialect() {
	cases := []struct {
		name string
		d    dialect.Dialect
		want string
	}{
		{"mysql", dialect.NewMySQL(), "`users`"},
		{"postgres", dialect.NewPostgres(), `"users"`},
		{"mssql", dialect.NewMSSQL(), "[users]"},
		{"sqlite3", dialect.NewSQLite(), `"users"`},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, tc.d.QuoteIdentifier("users", false))
		})
	}
}

func (s *DialectSuite) TestQuoteIdentifiersDottedPath() {
	d := dialect.NewMSSQL()
	s.Equal("[users].[id]", dialect.QuoteIdentifiers(d, "users.id"))
}

func (s *DialectSuite) TestQuoteIdentifierDoublesInternalDelimiter() {
	d := dialect.NewMySQL()
	s.Equal("`a``b`", d.QuoteIdentifier("a`b", false))
}

func (s *DialectSuite) TestEscapeNullYieldsNullLiteral() {
	d := dialect.NewMSSQL()
	got, err := d.Escape(nil, "UTC")
	s.NoError(err)
	s.Equal("NULL", got)
}

func (s *DialectSuite) TestEscapeStringDoublesQuotes() {
	d := dialect.NewMySQL()
	got, err := d.Escape("O'Brien", "UTC")
	s.NoError(err)
	s.Equal(`'O''Brien'`, got)
}

func (s *DialectSuite) TestBooleanLiteralPerDialect() {
	s.Equal("1", dialect.NewMSSQL().BooleanLiteral(true))
	s.Equal("0", dialect.NewMSSQL().BooleanLiteral(false))
	s.Equal("true", dialect.NewPostgres().BooleanLiteral(true))
}

func (s *DialectSuite) TestRegistryResolvesAllFourBuiltins() {
	reg := dialect.NewRegistry()
	for _, name := range []string{"mysql", "postgres", "mssql", "sqlite3"} {
		d, err := reg.Get(name)
		s.NoError(err)
		s.Equal(name, d.Name())
	}
}

func (s *DialectSuite) TestRegistryUnknownDialectErrors() {
	reg := dialect.NewRegistry()
	_, err := reg.Get("oracle")
	s.Error(err)
}

func (s *DialectSuite) TestQuoteTableWithSchemaAndAlias() {
	d := dialect.NewPostgres()
	ref := tableRef{schema: "app", table: "users"}
	s.Equal(`"app"."users" AS "u"`, dialect.QuoteTable(d, ref, "u"))
}

type tableRef struct {
	schema, table, delim, alias string
}

func (t tableRef) SchemaName() string { return t.schema }
func (t tableRef) Table() string      { return t.table }
func (t tableRef) Delim() string      { return t.delim }
func (t tableRef) AliasName() string  { return t.alias }
