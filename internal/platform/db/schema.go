package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
)

const SchemaFilePath = "config/schema.sql"

// ";" 区切りの DDL を1文ずつに分ける（行頭 "--" はコメント）
func SplitStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// スキーマファイルを流す。CREATE TABLE IF NOT EXISTS 前提なので何度実行してもよい
func ApplySchema(ctx context.Context, conn *sql.DB, path string) (int, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("スキーマの読み込み失敗: %w", err)
	}
	stmts := SplitStatements(string(buf))
	for i, s := range stmts {
		if _, err := conn.ExecContext(ctx, s); err != nil {
			return i, fmt.Errorf("スキーマ適用失敗 (%d): %w", i+1, err)
		}
	}
	return len(stmts), nil
}
