package sqlgen

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cpql/internal/ast"
	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/functions"
	"github.com/roach88/cpql/internal/metadata"
	"github.com/roach88/cpql/internal/parser"
	"github.com/roach88/cpql/internal/testutil"
)

func generate(t *testing.T, name dialect.Name, text string) *Result {
	t.Helper()
	res, err := generateErr(t, name, text)
	require.NoError(t, err)
	return res
}

func generateErr(t *testing.T, name dialect.Name, text string) (*Result, error) {
	t.Helper()
	q, err := parser.Parse(text)
	require.NoError(t, err, "parse %q", text)
	return New(testutil.SampleSchema(t), nil, dialect.MustLookup(name)).Generate(q)
}

func TestGenerate_ActiveUsers(t *testing.T) {
	res := generate(t, dialect.SQLServer, "SELECT u FROM User u WHERE u.IsActive = :active")

	assert.Equal(t, "SELECT u.* FROM users AS u WHERE u.is_active = @active", res.SQL)
	assert.Equal(t, []Param{{Name: "active", Placeholder: "@active"}}, res.Params)
	assert.Equal(t, []string{"active"}, res.Bindings)
}

func TestGenerate_DistinctParamsAndOrderBy(t *testing.T) {
	res := generate(t, dialect.SQLServer,
		"SELECT u FROM User u WHERE u.Name = :n1 OR u.Name = :n2 ORDER BY u.CreatedAt DESC")

	assert.Equal(t,
		"SELECT u.* FROM users AS u WHERE u.name = @n1 OR u.name = @n2 ORDER BY u.created_at DESC",
		res.SQL)
	assert.Equal(t, []string{"n1", "n2"}, res.Bindings)
}

func TestGenerate_Update(t *testing.T) {
	res := generate(t, dialect.SQLServer, "UPDATE User u SET u.IsActive = :a WHERE u.CreatedAt < :d")

	assert.Equal(t, "UPDATE users SET is_active = @a WHERE created_at < @d", res.SQL)
	assert.Equal(t, []string{"a", "d"}, res.Bindings)
}

func TestGenerate_UndeclaredAlias(t *testing.T) {
	res, err := generateErr(t, dialect.SQLServer, "SELECT u FROM User u WHERE x.Foo = 1")

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, IsUnresolvedEntity(err))
	assert.ErrorIs(t, err, ErrUnresolvedEntity)

	var ue *UnresolvedEntityError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "x", ue.Alias)
	assert.Equal(t, 1, ue.Pos.Line)
	assert.Equal(t, 28, ue.Pos.Column)
}

func TestGenerate_InnerJoin(t *testing.T) {
	res := generate(t, dialect.SQLServer, "SELECT c FROM Customer c INNER JOIN Order o ON o.CustomerId = c.Id")

	assert.Equal(t, "SELECT c.* FROM customers AS c INNER JOIN orders AS o ON o.customer_id = c.id", res.SQL)
	assert.Empty(t, res.Params)
}

func TestGenerate_JoinOrderPreserved(t *testing.T) {
	res := generate(t, dialect.SQLServer,
		"SELECT c FROM Customer c LEFT JOIN Order o ON o.CustomerId = c.Id "+
			"INNER JOIN User u ON u.Name = c.Name RIGHT OUTER JOIN AuditEntry a ON a.Message = u.Email")

	assert.Equal(t,
		"SELECT c.* FROM customers AS c"+
			" LEFT JOIN orders AS o ON o.customer_id = c.id"+
			" INNER JOIN users AS u ON u.name = c.name"+
			" RIGHT JOIN audit_log AS a ON a.message = u.email",
		res.SQL)
}

func TestGenerate_PlaceholderStyles(t *testing.T) {
	text := "SELECT u FROM User u WHERE u.Name = :n OR u.Email = :n OR u.Id = ?2"

	tests := []struct {
		dialect  dialect.Name
		sql      string
		params   []Param
		bindings []string
	}{
		{
			dialect.SQLServer,
			"SELECT u.* FROM users AS u WHERE u.name = @n OR u.email = @n OR u.id = @p2",
			[]Param{{"n", "@n"}, {"p2", "@p2"}},
			[]string{"n", "p2"},
		},
		{
			dialect.Postgres,
			"SELECT u.* FROM users AS u WHERE u.name = $1 OR u.email = $1 OR u.id = $2",
			[]Param{{"n", "$1"}, {"p2", "$2"}},
			[]string{"n", "p2"},
		},
		{
			dialect.MySQL,
			"SELECT u.* FROM users AS u WHERE u.name = ? OR u.email = ? OR u.id = ?",
			[]Param{{"n", "?"}, {"p2", "?"}},
			[]string{"n", "n", "p2"},
		},
		{
			dialect.SQLite,
			"SELECT u.* FROM users AS u WHERE u.name = @n OR u.email = @n OR u.id = @p2",
			[]Param{{"n", "@n"}, {"p2", "@p2"}},
			[]string{"n", "p2"},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			res := generate(t, tt.dialect, text)
			assert.Equal(t, tt.sql, res.SQL)
			assert.Equal(t, tt.params, res.Params)
			assert.Equal(t, tt.bindings, res.Bindings)
		})
	}
}

// Every parameter in the text appears in Params, and the SQL carries
// exactly as many placeholders as the dialect needs.
func TestGenerate_ParameterIntegrity(t *testing.T) {
	text := "SELECT o.Status, COUNT(o) FROM Order o WHERE o.Total > :min AND o.Status IN (:a, :b, :a) " +
		"GROUP BY o.Status HAVING COUNT(o) > ?1"
	q, err := parser.Parse(text)
	require.NoError(t, err)
	want := ast.Parameters(q)

	for _, d := range dialect.All() {
		t.Run(d.String(), func(t *testing.T) {
			res, err := New(testutil.SampleSchema(t), nil, d).Generate(q)
			require.NoError(t, err)

			names := make([]string, len(res.Params))
			for i, p := range res.Params {
				names[i] = p.Name
				assert.Contains(t, res.SQL, p.Placeholder)
			}
			assert.Equal(t, want, names)

			if d.Placeholder() == dialect.PlaceholderPositional {
				assert.Equal(t, len(res.Bindings), strings.Count(res.SQL, "?"))
				assert.Equal(t, []string{"min", "a", "b", "a", "p1"}, res.Bindings)
			} else {
				assert.Equal(t, want, res.Bindings)
			}
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	text := "SELECT c.Name, COUNT(o) AS orders FROM Customer c INNER JOIN Order o ON o.CustomerId = c.Id " +
		"WHERE o.Total > :min GROUP BY c.Name ORDER BY c.Name"
	first := generate(t, dialect.Postgres, text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, generate(t, dialect.Postgres, text))
	}
}

func TestGenerate_ConcurrentUse(t *testing.T) {
	q, err := parser.Parse("SELECT u FROM User u WHERE u.Name = :n")
	require.NoError(t, err)
	g := New(testutil.SampleSchema(t), nil, dialect.MustLookup(dialect.Postgres))

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := g.Generate(q)
			if err == nil && res.SQL != "SELECT u.* FROM users AS u WHERE u.name = $1" {
				err = fmt.Errorf("unexpected SQL %q", res.SQL)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestGenerate_SelectShapes(t *testing.T) {
	tests := []struct {
		name string
		text string
		sql  string
	}{
		{
			"select star",
			"SELECT * FROM User u",
			"SELECT * FROM users AS u",
		},
		{
			"distinct star",
			"SELECT DISTINCT * FROM User u",
			"SELECT DISTINCT * FROM users AS u",
		},
		{
			"distinct property",
			"SELECT DISTINCT u.Name FROM User u",
			"SELECT DISTINCT u.name FROM users AS u",
		},
		{
			"item aliases",
			"SELECT u.Name AS userName, u.Email mail FROM User u",
			"SELECT u.name AS userName, u.email AS mail FROM users AS u",
		},
		{
			"no alias qualifies with table",
			"SELECT Name FROM User WHERE IsActive = TRUE",
			"SELECT users.name FROM users WHERE users.is_active = 1",
		},
		{
			"bare entity reference without alias",
			"SELECT User FROM User",
			"SELECT users.* FROM users",
		},
		{
			"bare property resolves against single root",
			"SELECT Name FROM User u INNER JOIN Order o ON o.CustomerId = u.Id",
			"SELECT u.name FROM users AS u INNER JOIN orders AS o ON o.customer_id = u.id",
		},
		{
			"alias inside expression renders primary key",
			"SELECT COUNT(o) FROM Order o",
			"SELECT COUNT(o.id) FROM orders AS o",
		},
		{
			"alias comparison renders primary key",
			"SELECT a FROM AuditEntry a WHERE a = :key",
			"SELECT a.* FROM audit_log AS a WHERE a.entry_key = @key",
		},
		{
			"several roots",
			"SELECT u.Name, c.Name FROM User u, Customer c WHERE u.Name = c.Name",
			"SELECT u.name, c.name FROM users AS u, customers AS c WHERE u.name = c.name",
		},
		{
			"explicit column mapping",
			"SELECT o.Status FROM Order o WHERE o.Status <> 'closed'",
			"SELECT o.order_status FROM orders AS o WHERE o.order_status <> 'closed'",
		},
		{
			"clause order is fixed",
			"SELECT o.Status, SUM(o.Total) AS total FROM Order o WHERE o.Total > 0 " +
				"GROUP BY o.Status HAVING SUM(o.Total) > 100 ORDER BY o.Status, o.Total DESC",
			"SELECT o.order_status, SUM(o.total) AS total FROM orders AS o WHERE o.total > 0 " +
				"GROUP BY o.order_status HAVING SUM(o.total) > 100 ORDER BY o.order_status ASC, o.total DESC",
		},
		{
			"count star and distinct",
			"SELECT COUNT(*), COUNT(DISTINCT o.CustomerId) FROM Order o",
			"SELECT COUNT(*), COUNT(DISTINCT o.customer_id) FROM orders AS o",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sql, generate(t, dialect.SQLServer, tt.text).SQL)
		})
	}
}

func TestGenerate_UpdateAndDelete(t *testing.T) {
	tests := []struct {
		name string
		text string
		sql  string
	}{
		{
			"update without alias",
			"UPDATE User SET Name = :n WHERE Id = :id",
			"UPDATE users SET name = @n WHERE id = @id",
		},
		{
			"update several assignments",
			"UPDATE Order o SET o.Status = 'paid', o.Total = o.Total * 2",
			"UPDATE orders SET order_status = 'paid', total = total * 2",
		},
		{
			"update explicit table",
			"UPDATE AuditEntry a SET a.Message = NULL WHERE a = :key",
			"UPDATE audit_log SET message = NULL WHERE entry_key = @key",
		},
		{
			"delete all",
			"DELETE FROM User",
			"DELETE FROM users",
		},
		{
			"delete with alias",
			"DELETE FROM Order o WHERE o.Status = 'void' AND o.Total < :t",
			"DELETE FROM orders WHERE order_status = 'void' AND total < @t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sql, generate(t, dialect.SQLServer, tt.text).SQL)
		})
	}
}

func TestGenerate_Expressions(t *testing.T) {
	tests := []struct {
		name  string
		where string
		sql   string
	}{
		{"precedence kept without parens", "u.Id + 2 * 3 > 7", "u.id + 2 * 3 > 7"},
		{"parens kept where needed", "u.Id * (2 + 3) = 10 - (4 - 1)", "u.id * (2 + 3) = 10 - (4 - 1)"},
		{"left chain stays flat", "u.Id - 1 - 2 = 0", "u.id - 1 - 2 = 0"},
		{"redundant parens dropped", "((u.Id)) = (1)", "u.id = 1"},
		{"and inside or is wrapped", "u.Id = 1 OR u.Id = 2 AND u.Name = 'x'", "u.id = 1 OR (u.id = 2 AND u.name = 'x')"},
		{"or inside and is wrapped", "(u.Id = 1 OR u.Id = 2) AND u.Name = 'x'", "(u.id = 1 OR u.id = 2) AND u.name = 'x'"},
		{"and chain stays flat", "u.Id = 1 AND u.Id = 2 AND u.Id = 3", "u.id = 1 AND u.id = 2 AND u.id = 3"},
		{"not over comparison", "NOT u.Id = 1", "NOT u.id = 1"},
		{"not over or", "NOT (u.IsActive = TRUE OR u.Name IS NULL)", "NOT (u.is_active = 1 OR u.name IS NULL)"},
		{"negation", "-u.Id < -(-3)", "-u.id < -(-3)"},
		{"negated group", "-(u.Id + 1) = 0", "-(u.id + 1) = 0"},
		{"is not null", "u.Email IS NOT NULL", "u.email IS NOT NULL"},
		{"in list", "u.Id NOT IN (1, 2, :x)", "u.id NOT IN (1, 2, @x)"},
		{"between", "u.Id BETWEEN 1 AND 10 + 1", "u.id BETWEEN 1 AND 10 + 1"},
		{"not between", "u.Id NOT BETWEEN :lo AND :hi", "u.id NOT BETWEEN @lo AND @hi"},
		{"like", "u.Name LIKE 'a%' AND u.Email NOT LIKE :p", "u.name LIKE 'a%' AND u.email NOT LIKE @p"},
		{"string escaping", "u.Name = 'O''Brien'", "u.name = 'O''Brien'"},
		{"booleans", "u.IsActive = FALSE", "u.is_active = 0"},
		{"decimal", "u.Id > 1.5", "u.id > 1.5"},
		{"functions", "UPPER(TRIM(u.Name)) = :n", "UPPER(TRIM(u.name)) = @n"},
		{"modulo", "MOD(u.Id, 2) = 0 OR u.Id % 3 = 0", "(u.id % 2) = 0 OR u.id % 3 = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := generate(t, dialect.SQLServer, "SELECT u FROM User u WHERE "+tt.where)
			assert.Equal(t, "SELECT u.* FROM users AS u WHERE "+tt.sql, res.SQL)
		})
	}
}

func TestGenerate_DialectRendering(t *testing.T) {
	tests := []struct {
		name    string
		dialect dialect.Name
		text    string
		sql     string
	}{
		{"postgres booleans", dialect.Postgres, "SELECT u FROM User u WHERE u.IsActive = TRUE",
			"SELECT u.* FROM users AS u WHERE u.is_active = TRUE"},
		{"mysql booleans", dialect.MySQL, "SELECT u FROM User u WHERE u.IsActive = FALSE",
			"SELECT u.* FROM users AS u WHERE u.is_active = FALSE"},
		{"sqlite booleans", dialect.SQLite, "SELECT u FROM User u WHERE u.IsActive = TRUE",
			"SELECT u.* FROM users AS u WHERE u.is_active = 1"},
		{"sqlserver bare true", dialect.SQLServer, "SELECT u FROM User u WHERE TRUE",
			"SELECT u.* FROM users AS u WHERE 1 = 1"},
		{"sqlite bare booleans", dialect.SQLite, "SELECT u FROM User u WHERE u.IsActive = TRUE AND NOT FALSE OR TRUE",
			"SELECT u.* FROM users AS u WHERE (u.is_active = 1 AND NOT 1 = 0) OR 1 = 1"},
		{"sqlserver boolean join condition", dialect.SQLServer, "SELECT c FROM Customer c INNER JOIN Order o ON TRUE",
			"SELECT c.* FROM customers AS c INNER JOIN orders AS o ON 1 = 1"},
		{"sqlserver boolean having", dialect.SQLServer, "SELECT o.Status FROM Order o GROUP BY o.Status HAVING FALSE",
			"SELECT o.order_status FROM orders AS o GROUP BY o.order_status HAVING 1 = 0"},
		{"sqlserver delete where false", dialect.SQLServer, "DELETE FROM User u WHERE FALSE",
			"DELETE FROM users WHERE 1 = 0"},
		{"postgres bare true", dialect.Postgres, "SELECT u FROM User u WHERE TRUE OR FALSE",
			"SELECT u.* FROM users AS u WHERE TRUE OR FALSE"},
		{"postgres backslash literal", dialect.Postgres, `SELECT u FROM User u WHERE u.Name = 'a\b'`,
			`SELECT u.* FROM users AS u WHERE u.name = E'a\\b'`},
		{"mysql backslash literals", dialect.MySQL, `SELECT u FROM User u WHERE u.Name = '\' AND u.Email = ' OR 1=1 -- '`,
			`SELECT u.* FROM users AS u WHERE u.name = '\\' AND u.email = ' OR 1=1 -- '`},
		{"sqlserver length", dialect.SQLServer, "SELECT LENGTH(u.Name) FROM User u",
			"SELECT LEN(u.name) FROM users AS u"},
		{"mysql length", dialect.MySQL, "SELECT LENGTH(u.Name) FROM User u",
			"SELECT CHAR_LENGTH(u.name) FROM users AS u"},
		{"sqlite concat", dialect.SQLite, "SELECT CONCAT(u.Name, ' ', u.Email) FROM User u",
			"SELECT (u.name || ' ' || u.email) FROM users AS u"},
		{"sqlite now", dialect.SQLite, "SELECT u FROM User u WHERE u.CreatedAt < NOW()",
			"SELECT u.* FROM users AS u WHERE u.created_at < CURRENT_TIMESTAMP"},
		{"postgres regexp", dialect.Postgres, "SELECT u FROM User u WHERE REGEXP(u.Email, :re) = TRUE",
			"SELECT u.* FROM users AS u WHERE (u.email ~ $1) = TRUE"},
		{"postgres full join", dialect.Postgres, "SELECT c FROM Customer c FULL OUTER JOIN Order o ON o.CustomerId = c.Id",
			"SELECT c.* FROM customers AS c FULL JOIN orders AS o ON o.customer_id = c.id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sql, generate(t, tt.dialect, tt.text).SQL)
		})
	}
}

func TestGenerate_QuotesReservedIdentifiers(t *testing.T) {
	schema, err := metadata.NewSchema(metadata.Entity{
		Name:  "Account",
		Table: "user",
		Properties: []metadata.Property{
			{Name: "Id"},
			{Name: "Group", Column: "group"},
			{Name: "Label", Column: "display name"},
		},
	})
	require.NoError(t, err)
	q, err := parser.Parse("SELECT a.Group, a.Label FROM Account a")
	require.NoError(t, err)

	want := map[dialect.Name]string{
		dialect.SQLServer: "SELECT a.[group], a.[display name] FROM user AS a",
		dialect.Postgres:  `SELECT a."group", a."display name" FROM "user" AS a`,
		dialect.MySQL:     "SELECT a.`group`, a.`display name` FROM user AS a",
		dialect.SQLite:    `SELECT a."group", a."display name" FROM user AS a`,
	}
	for _, d := range dialect.All() {
		res, err := New(schema, nil, d).Generate(q)
		require.NoError(t, err)
		assert.Equal(t, want[d.Name()], res.SQL, d.String())
	}
}

func TestGenerate_CustomRegistry(t *testing.T) {
	reg := functions.Default().Clone()
	require.NoError(t, reg.Register("SOUNDEX", dialect.SQLServer, functions.Fn("SOUNDEX")))

	q, err := parser.Parse("SELECT u FROM User u WHERE SOUNDEX(u.Name) = SOUNDEX(:n)")
	require.NoError(t, err)

	res, err := New(testutil.SampleSchema(t), reg, nil).Generate(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT u.* FROM users AS u WHERE SOUNDEX(u.name) = SOUNDEX(@n)", res.SQL)

	_, err = New(testutil.SampleSchema(t), nil, nil).Generate(q)
	assert.True(t, IsUnknownFunction(err))
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		dialect dialect.Name
		text    string
		is      error
		message string
	}{
		{"unknown entity", dialect.SQLServer, "SELECT g FROM Ghost g",
			ErrUnresolvedEntity, `1:15: unresolved entity "Ghost": unknown entity: Ghost`},
		{"unknown update entity", dialect.SQLServer, "UPDATE Ghost g SET g.Name = 'x'",
			ErrUnresolvedEntity, `1:8: unresolved entity "Ghost"`},
		{"unknown delete entity", dialect.SQLServer, "DELETE FROM Ghost g WHERE g.Id = 1",
			ErrUnresolvedEntity, `1:13: unresolved entity "Ghost"`},
		{"unknown join entity", dialect.SQLServer, "SELECT u FROM User u INNER JOIN Ghost g ON g.Id = u.Id",
			ErrUnresolvedEntity, `unresolved entity "Ghost"`},
		{"unknown property", dialect.SQLServer, "SELECT u FROM User u WHERE u.Age > 1",
			ErrUnresolvedProperty, "1:28: unresolved property User.Age"},
		{"unknown property in select", dialect.SQLServer, "SELECT u.Age FROM User u",
			ErrUnresolvedProperty, "unresolved property User.Age"},
		{"unknown function", dialect.SQLServer, "SELECT u FROM User u WHERE SOUNDEX(u.Name) = 'x'",
			ErrUnknownFunction, "1:28: unknown function SOUNDEX for dialect sqlserver"},
		{"regexp on sqlserver", dialect.SQLServer, "SELECT u FROM User u WHERE REGEXP(u.Name, :re) = 1",
			ErrUnknownFunction, "unknown function REGEXP for dialect sqlserver"},
		{"full join on mysql", dialect.MySQL, "SELECT c FROM Customer c FULL JOIN Order o ON o.CustomerId = c.Id",
			ErrUnsupportedConstruct, "unsupported construct: join type FULL JOIN (dialect mysql)"},
		{"primary key assignment", dialect.SQLServer, "UPDATE User u SET u.Id = 5",
			ErrUnsupportedConstruct, "unsupported construct: primary key assignment User.Id"},
		{"update alias mismatch", dialect.SQLServer, "UPDATE User u SET x.Name = 'a'",
			ErrUnresolvedEntity, `unresolved alias "x"`},
		{"ambiguous bare property", dialect.SQLServer, "SELECT Name FROM User u, Customer c",
			ErrUnresolvedEntity, `unresolved entity for property "Name"`},
		{"duplicate alias", dialect.SQLServer, "SELECT u FROM User u INNER JOIN Order u ON u.Id = 1",
			ErrUnsupportedConstruct, `duplicate alias "u"`},
		{"indexed parameter shadows named", dialect.Postgres, "SELECT u FROM User u WHERE u.Name = :p1 AND u.Email = ?1",
			ErrUnresolvedParameter, "indexed parameter collides with named parameter :p1"},
		{"named parameter shadows indexed", dialect.SQLServer, "SELECT u FROM User u WHERE u.Email = ?1 AND u.Name = :p1",
			ErrUnresolvedParameter, "indexed parameter collides with named parameter :p1"},
		{"niladic with arguments", dialect.SQLite, "SELECT NOW(1) FROM User u",
			ErrUnsupportedConstruct, "function call NOW"},
		{"infix with one operand", dialect.SQLite, "SELECT CONCAT(u.Name) FROM User u",
			ErrUnsupportedConstruct, "function call CONCAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := generateErr(t, tt.dialect, tt.text)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.is)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestGenerate_ResolverErrorsUnwrap(t *testing.T) {
	_, err := generateErr(t, dialect.SQLServer, "SELECT u.Age FROM User u")
	assert.True(t, errors.Is(err, metadata.ErrUnknownProperty))

	_, err = generateErr(t, dialect.SQLServer, "SELECT g FROM Ghost g")
	assert.True(t, errors.Is(err, metadata.ErrUnknownEntity))

	_, err = generateErr(t, dialect.SQLServer, "SELECT u FROM User u WHERE SOUNDEX(u.Name) = 'x'")
	assert.True(t, errors.Is(err, functions.ErrUnknownFunction))
}

func TestGenerate_HandBuiltQueries(t *testing.T) {
	g := New(testutil.SampleSchema(t), nil, nil)

	t.Run("missing from", func(t *testing.T) {
		res, err := g.Generate(&ast.SelectQuery{})
		assert.Nil(t, res)
		assert.True(t, IsMissingFromClause(err))
		assert.ErrorIs(t, err, ErrMissingFromClause)
	})

	t.Run("join without on", func(t *testing.T) {
		_, err := g.Generate(&ast.SelectQuery{From: &ast.FromClause{
			Items: []ast.FromItem{{EntityName: "Customer", Alias: "c"}},
			Joins: []ast.JoinClause{{Type: ast.JoinInner, EntityName: "Order", Alias: "o"}},
		}})
		assert.True(t, IsUnsupportedConstruct(err))
		assert.Contains(t, err.Error(), "join without ON condition")
	})

	t.Run("update without assignments", func(t *testing.T) {
		_, err := g.Generate(&ast.UpdateQuery{EntityName: "User"})
		assert.True(t, IsUnsupportedConstruct(err))
	})

	t.Run("parameter without key", func(t *testing.T) {
		_, err := g.Generate(&ast.SelectQuery{
			From:  &ast.FromClause{Items: []ast.FromItem{{EntityName: "User", Alias: "u"}}},
			Where: &ast.WhereClause{Condition: &ast.BinaryOp{Op: ast.OpEq, Left: &ast.MemberPath{Alias: "u", Property: "Id"}, Right: &ast.Parameter{}}},
		})
		assert.True(t, IsUnresolvedParameter(err))
		assert.ErrorIs(t, err, ErrUnresolvedParameter)
	})

	t.Run("bad numeric literal", func(t *testing.T) {
		_, err := g.Generate(&ast.SelectQuery{
			From:  &ast.FromClause{Items: []ast.FromItem{{EntityName: "User", Alias: "u"}}},
			Where: &ast.WhereClause{Condition: &ast.BinaryOp{Op: ast.OpEq, Left: &ast.MemberPath{Alias: "u", Property: "Id"}, Right: &ast.Literal{Kind: ast.LiteralNumber, Value: "1; DROP TABLE users"}}},
		})
		assert.True(t, IsUnsupportedConstruct(err))
	})

	t.Run("nil query", func(t *testing.T) {
		_, err := g.Generate(nil)
		assert.True(t, IsUnsupportedConstruct(err))
	})
}

func TestGenerate_DefaultsToSQLServer(t *testing.T) {
	g := New(testutil.SampleSchema(t), nil, nil)
	assert.Equal(t, dialect.SQLServer, g.Dialect().Name())
}

func TestGenerate_Golden(t *testing.T) {
	queries := []struct {
		name string
		text string
	}{
		{"aggregate", "SELECT o.Status, COUNT(o) AS n FROM Order o WHERE o.Total > :min AND o.Status <> 'closed' " +
			"GROUP BY o.Status HAVING COUNT(o) > ?1 ORDER BY o.Status"},
		{"functions", "SELECT LENGTH(u.Name) AS len, NOW() FROM User u WHERE CONCAT(u.Name, u.Email) LIKE :pattern"},
		{"update", "UPDATE Order o SET o.Status = :status, o.Total = o.Total * 2 WHERE o.Id IN (?1, ?2)"},
		{"delete", "DELETE FROM AuditEntry a WHERE a.Message LIKE 'tmp%' OR a.EntryKey = :key"},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range queries {
		t.Run(tt.name, func(t *testing.T) {
			q, err := parser.Parse(tt.text)
			require.NoError(t, err)

			var b strings.Builder
			for _, d := range dialect.All() {
				res, err := New(testutil.SampleSchema(t), nil, d).Generate(q)
				require.NoError(t, err)
				fmt.Fprintf(&b, "-- %s\n%s\n-- bindings: %s\n", d.Name(), res.SQL, strings.Join(res.Bindings, ", "))
			}
			g.Assert(t, tt.name, []byte(b.String()))
		})
	}
}
