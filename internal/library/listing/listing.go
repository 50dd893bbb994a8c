// Package listing builds the paginated list and typeahead queries shared by
// the books, readers and records stores.
package listing

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"libadmin/internal/platform/httpx"
)

const SearchLimit = 20

var Dialect = goqu.Dialect("mysql")

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains: 部分一致。ワイルドカード文字はエスケープする
// mysql 方言の Like は LIKE BINARY になるので照合順序に任せる ILike を使う
func Contains(col string, term string) exp.BooleanExpression {
	return goqu.I(col).ILike("%" + likeEscaper.Replace(term) + "%")
}

func HasPrefix(col string, term string) exp.BooleanExpression {
	return goqu.I(col).ILike(likeEscaper.Replace(term) + "%")
}

// Fetch: base に order/limit/offset を付けて1ページ分を取得し、同じ条件で総件数も数える
func Fetch[T any](ctx context.Context, db *sqlx.DB, base *goqu.SelectDataset, p httpx.Page, order ...exp.OrderedExpression) ([]T, int64, error) {
	query, args, err := base.Order(order...).Limit(p.Limit()).Offset(p.Offset()).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}
	items := []T{}
	if err := db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := base.ClearSelect().Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Top: 件数を数えずに先頭 limit 件だけ取る（typeahead 用）
func Top[T any](ctx context.Context, db *sqlx.DB, ds *goqu.SelectDataset, limit uint, order ...exp.OrderedExpression) ([]T, error) {
	query, args, err := ds.Order(order...).Limit(limit).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	items := []T{}
	if err := db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}
