package db

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"tasksmith/internal/config"
)

const defaultParams = "parseTime=true&multiStatements=true"

func DSN(conf *config.Config) string {
	params := conf.DbParams
	if params == "" {
		params = defaultParams
	}

	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?%s",
		conf.DbUser,
		conf.DbPassword,
		conf.DbHost,
		conf.DbPort,
		conf.DbName,
		params,
	)
}

func ConnectDB(ctx context.Context, conf *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "mysql", DSN(conf))
	if err != nil {
		return nil, err
	}

	return db, nil
}
