package selectplan_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fathiraz/sqlgen/dialect"
	"github.com/fathiraz/sqlgen/errs"
	"github.com/fathiraz/sqlgen/model"
	"github.com/fathiraz/sqlgen/selectplan"
)

type SelectPlanSuite struct {
	suite.Suite
	d     dialect.Dialect
	m     *model.ModelMeta
	table model.TableRef
}

func (s *SelectPlanSuite) SetupTest() {
	s.d = dialect.NewMySQL()
	s.m = model.NewModelMeta("User", "users")
	s.m.PrimaryKeys = []string{"id"}
	s.table = model.TableRef{TableName: "users"}
}

func TestSelectPlanSuite(t *testing.T) {
	suite.Run(t, new(SelectPlanSuite))
}

// Scenario 1 (spec §8): a bare select with no attributes/where/order
// emits SELECT * FROM the quoted, aliased table.
func (s *SelectPlanSuite) TestBareSelectEmitsStarFromAliasedTable() {
	sql, err := selectplan.Build(s.d, s.table, s.m, selectplan.Options{})
	s.NoError(err)
	s.Equal("SELECT * FROM `users` AS `users`;", sql)
}

func (s *SelectPlanSuite) TestAttributesAreQuotedInOrder() {
	sql, err := selectplan.Build(s.d, s.table, s.m, selectplan.Options{
		Attributes: []interface{}{"id", "name"},
	})
	s.NoError(err)
	s.Equal("SELECT `id`, `name` FROM `users` AS `users`;", sql)
}

func (s *SelectPlanSuite) TestAttributeTupleAliasesAs() {
	sql, err := selectplan.Build(s.d, s.table, s.m, selectplan.Options{
		Attributes: []interface{}{[]interface{}{"name", "displayName"}},
	})
	s.NoError(err)
	s.Equal("SELECT `name` AS `displayName` FROM `users` AS `users`;", sql)
}

func (s *SelectPlanSuite) TestWhereClauseIsAppended() {
	sql, err := selectplan.Build(s.d, s.table, s.m, selectplan.Options{
		Where: 7,
	})
	s.NoError(err)
	s.Equal("SELECT * FROM `users` AS `users` WHERE `users`.`id` = 7;", sql)
}

func (s *SelectPlanSuite) TestLimitOnly() {
	limit := 10
	sql, err := selectplan.Build(s.d, s.table, s.m, selectplan.Options{Limit: &limit})
	s.NoError(err)
	s.Equal("SELECT * FROM `users` AS `users` LIMIT 10;", sql)
}

func (s *SelectPlanSuite) TestLimitWithOffset() {
	limit, offset := 10, 20
	sql, err := selectplan.Build(s.d, s.table, s.m, selectplan.Options{Limit: &limit, Offset: &offset})
	s.NoError(err)
	s.Equal("SELECT * FROM `users` AS `users` LIMIT 20, 10;", sql)
}

func (s *SelectPlanSuite) TestOrderByDirection() {
	sql, err := selectplan.Build(s.d, s.table, s.m, selectplan.Options{
		Order: []interface{}{[]interface{}{"name", "DESC"}},
	})
	s.NoError(err)
	s.Equal("SELECT * FROM `users` AS `users` ORDER BY `User`.`name` DESC;", sql)
}

func (s *SelectPlanSuite) TestInvalidOrderDirectionErrors() {
	_, err := selectplan.Build(s.d, s.table, s.m, selectplan.Options{
		Order: []interface{}{[]interface{}{"name", "SIDEWAYS"}},
	})
	s.Error(err)
}

func (s *SelectPlanSuite) TestGroupBy() {
	sql, err := selectplan.Build(s.d, s.table, s.m, selectplan.Options{
		Group: []interface{}{"name"},
	})
	s.NoError(err)
	s.Equal("SELECT * FROM `users` AS `users` GROUP BY `name`;", sql)
}

// --- include-tree join generation (spec §4.5, the C6 scenarios the prior
// test file never exercised: direct joins, through-table joins, required
// EXISTS synthesis, and include attribute rewriting) ---

func (s *SelectPlanSuite) TestIncludeBelongsToJoinsMainAndAssociatedTables() {
	posts := model.NewModelMeta("Post", "posts")
	posts.PrimaryKeys = []string{"id"}
	assocAuthor := &model.Association{
		Kind: model.BelongsTo, Source: posts, Target: s.m, As: "author",
		IdentifierField: "user_id",
	}
	posts.AddAssociation(assocAuthor)

	sql, err := selectplan.Build(s.d, model.TableRef{TableName: "posts"}, posts, selectplan.Options{
		Include: []*model.Include{{Association: assocAuthor, Model: s.m, As: "author"}},
	})
	s.NoError(err)
	s.Equal("SELECT `posts`.* FROM `posts` AS `posts` LEFT OUTER JOIN `users` AS `author` ON `posts`.`user_id` = `author`.`id`;", sql)
}

func (s *SelectPlanSuite) TestIncludeRequiredUsesInnerJoin() {
	posts := model.NewModelMeta("Post", "posts")
	posts.PrimaryKeys = []string{"id"}
	assocAuthor := &model.Association{
		Kind: model.BelongsTo, Source: posts, Target: s.m, As: "author",
		IdentifierField: "user_id",
	}
	posts.AddAssociation(assocAuthor)

	sql, err := selectplan.Build(s.d, model.TableRef{TableName: "posts"}, posts, selectplan.Options{
		Include: []*model.Include{{Association: assocAuthor, Model: s.m, As: "author", Required: true}},
	})
	s.NoError(err)
	s.Contains(sql, "INNER JOIN `users` AS `author` ON")
	s.NotContains(sql, "LEFT OUTER JOIN")
}

func (s *SelectPlanSuite) TestIncludeHasManyLeftOuterJoin() {
	posts := model.NewModelMeta("Post", "posts")
	posts.PrimaryKeys = []string{"id"}
	assocPosts := &model.Association{
		Kind: model.HasMany, Source: s.m, Target: posts, As: "posts",
		IdentifierField: "user_id",
	}
	s.m.AddAssociation(assocPosts)

	sql, err := selectplan.Build(s.d, s.table, s.m, selectplan.Options{
		Include: []*model.Include{{Association: assocPosts, Model: posts, As: "posts"}},
	})
	s.NoError(err)
	s.Equal("SELECT `users`.* FROM `users` AS `users` LEFT OUTER JOIN `posts` AS `posts` ON `users`.`id` = `posts`.`user_id`;", sql)
}

// Include.Attributes (spec §4.5 "Include attributes are rewritten ... and
// appended to subQueryAttributes ... or mainAttributes") must show up in the
// generated SELECT list, not just drive join predicates.
func (s *SelectPlanSuite) TestIncludeAttributesAppendedToSelectList() {
	posts := model.NewModelMeta("Post", "posts")
	posts.PrimaryKeys = []string{"id"}
	assocAuthor := &model.Association{
		Kind: model.BelongsTo, Source: posts, Target: s.m, As: "author",
		IdentifierField: "user_id",
	}
	posts.AddAssociation(assocAuthor)

	sql, err := selectplan.Build(s.d, model.TableRef{TableName: "posts"}, posts, selectplan.Options{
		Include: []*model.Include{{Association: assocAuthor, Model: s.m, As: "author", Attributes: []string{"email"}}},
	})
	s.NoError(err)
	s.Equal("SELECT `posts`.*, `author`.`email` AS `author__email` FROM `posts` AS `posts` LEFT OUTER JOIN `users` AS `author` ON `posts`.`user_id` = `author`.`id`;", sql)
}

// A computed attribute name (anything that isn't a plain identifier) has no
// deterministic alias to derive and must be rejected rather than silently
// mis-aliased (spec §4.5, errs.MissingAliasForComputedAttributeError).
func (s *SelectPlanSuite) TestIncludeComputedAttributeWithoutAliasErrors() {
	posts := model.NewModelMeta("Post", "posts")
	posts.PrimaryKeys = []string{"id"}
	assocAuthor := &model.Association{
		Kind: model.BelongsTo, Source: posts, Target: s.m, As: "author",
		IdentifierField: "user_id",
	}
	posts.AddAssociation(assocAuthor)

	_, err := selectplan.Build(s.d, model.TableRef{TableName: "posts"}, posts, selectplan.Options{
		Include: []*model.Include{{Association: assocAuthor, Model: s.m, As: "author", Attributes: []string{"COUNT(*)"}}},
	})
	s.Error(err)
	var target *errs.MissingAliasForComputedAttributeError
	s.True(errors.As(err, &target))
}

func (s *SelectPlanSuite) belongsToManyTagsFixture() (*model.ModelMeta, *model.ModelMeta, *model.Association) {
	posts := model.NewModelMeta("Post", "posts")
	posts.PrimaryKeys = []string{"id"}
	tags := model.NewModelMeta("Tag", "tags")
	tags.PrimaryKeys = []string{"id"}
	postTags := model.NewModelMeta("PostTag", "post_tags")

	assocTags := &model.Association{
		Kind: model.BelongsToMany, Source: posts, Target: tags, As: "tags",
		IdentifierField:        "post_id",
		ForeignIdentifierField: "tag_id",
		Through:                &model.Through{Model: postTags, As: "post_tags"},
	}
	posts.AddAssociation(assocTags)
	return posts, tags, assocTags
}

// JoinTableDependent dialects (MySQL, MSSQL, SQLite) fold the through-table
// join into a single nested JOIN (spec §4.5 "Include join generation").
func (s *SelectPlanSuite) TestBelongsToManyThroughJoinNestedFormOnMySQL() {
	posts, tags, assocTags := s.belongsToManyTagsFixture()

	sql, err := selectplan.Build(s.d, model.TableRef{TableName: "posts"}, posts, selectplan.Options{
		Include: []*model.Include{{Association: assocTags, Model: tags, As: "tags"}},
	})
	s.NoError(err)
	s.Equal("SELECT `posts`.* FROM `posts` AS `posts` LEFT OUTER JOIN (`post_tags` AS `tags->post_tags` INNER JOIN `tags` AS `tags` ON `tags->post_tags`.`tag_id` = `tags`.`id`) ON `posts`.`id` = `tags->post_tags`.`post_id`;", sql)
}

// Dialects without JoinTableDependent (Postgres) emit the through-table join
// as two independent LEFT OUTER JOINs instead.
func (s *SelectPlanSuite) TestBelongsToManyThroughJoinTwoStepFormOnPostgres() {
	posts, tags, assocTags := s.belongsToManyTagsFixture()
	pg := dialect.NewPostgres()

	sql, err := selectplan.Build(pg, model.TableRef{TableName: "posts"}, posts, selectplan.Options{
		Include: []*model.Include{{Association: assocTags, Model: tags, As: "tags"}},
	})
	s.NoError(err)
	s.Equal(`SELECT "posts".* FROM "posts" AS "posts" LEFT OUTER JOIN "post_tags" AS "tags->post_tags" ON "posts"."id" = "tags->post_tags"."post_id" LEFT OUTER JOIN "tags" AS "tags" ON "tags->post_tags"."tag_id" = "tags"."id";`, sql)
}

// A Required through-include synthesizes a correlated EXISTS-style
// subquery appended to the WHERE clause (spec §4.5), on top of the INNER
// JOIN used for the through-table hop itself.
func (s *SelectPlanSuite) TestRequiredThroughIncludeAddsCorrelatedExistsCondition() {
	posts, tags, assocTags := s.belongsToManyTagsFixture()

	sql, err := selectplan.Build(s.d, model.TableRef{TableName: "posts"}, posts, selectplan.Options{
		Include: []*model.Include{{Association: assocTags, Model: tags, As: "tags", Required: true}},
	})
	s.NoError(err)
	s.Contains(sql, "INNER JOIN (`post_tags` AS `tags->post_tags`")
	s.Contains(sql, "SELECT 1 FROM `post_tags` AS `tags->post_tags`")
	s.Contains(sql, "IS NOT NULL")
	s.Contains(sql, "LIMIT 1")
}

// ThroughAttributes (columns pulled off the join table itself, distinct
// from the target model's own Attributes) must also be rewritten into the
// select list, qualified by the through-table alias.
func (s *SelectPlanSuite) TestThroughAttributesAppendedToSelectList() {
	posts, tags, assocTags := s.belongsToManyTagsFixture()

	sql, err := selectplan.Build(s.d, model.TableRef{TableName: "posts"}, posts, selectplan.Options{
		Include: []*model.Include{{Association: assocTags, Model: tags, As: "tags", ThroughAttributes: []string{"tagged_at"}}},
	})
	s.NoError(err)
	s.Contains(sql, "`tags->post_tags`.`tagged_at` AS `tags->post_tags__tagged_at`")
}

// Grouped-limit rewrites the query into one UNION-of-per-key-limited
// subqueries branch per value (spec §4.5 "Grouped limit (UNION)").
func (s *SelectPlanSuite) TestGroupedLimitUnion() {
	sql, err := selectplan.Build(s.d, s.table, s.m, selectplan.Options{
		GroupedLimit: &selectplan.GroupedLimit{On: "user_id", Values: []interface{}{1, 2}, Limit: 5},
	})
	s.NoError(err)
	s.Equal("SELECT users.* FROM ((SELECT * FROM `users` AS `users` WHERE `users`.`user_id` = 1 LIMIT 5) UNION ALL (SELECT * FROM `users` AS `users` WHERE `users`.`user_id` = 2 LIMIT 5)) AS `users`;", sql)
}
