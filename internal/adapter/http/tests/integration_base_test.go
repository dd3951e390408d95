//go:build integration
// +build integration

package tests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	dbadapter "tasksmith/internal/adapter/db"
	"tasksmith/internal/config"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// IntegrationSuiteBase owns a throwaway MySQL database for the HTTP suites.
type IntegrationSuiteBase struct {
	suite.Suite

	adminDB    *sqlx.DB
	DB         *sqlx.DB
	testDBName string
}

func (s *IntegrationSuiteBase) SetupSuite() {
	conf := &config.Config{
		DbHost:     envOrDefault("MYSQL_HOST", "127.0.0.1"),
		DbPort:     envOrDefault("MYSQL_PORT", "3306"),
		DbUser:     envOrDefault("MYSQL_ROOT_USER", "root"),
		DbPassword: envOrDefault("MYSQL_ROOT_PASSWORD", "root"),
		DbParams:   os.Getenv("MYSQL_PARAMS"),
	}
	database := envOrDefault("MYSQL_TEST_DATABASE", envOrDefault("MYSQL_DATABASE", "tasksmith")+"_http_test")

	ctx := context.Background()
	adminDB, err := dbadapter.ConnectDB(ctx, conf)
	if err != nil {
		s.T().Skipf("skipping integration suite: could not connect to mysql: %v", err)
	}
	s.adminDB = adminDB

	_, err = s.adminDB.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", database))
	s.Require().NoError(err)

	conf.DbName = database
	s.DB, err = dbadapter.ConnectDB(ctx, conf)
	s.Require().NoError(err)
	s.testDBName = database
}

func (s *IntegrationSuiteBase) TearDownSuite() {
	if s.DB != nil {
		s.Require().NoError(s.DB.Close())
	}

	if s.adminDB == nil {
		return
	}
	if strings.HasSuffix(s.testDBName, "_test") {
		_, err := s.adminDB.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", s.testDBName))
		s.Require().NoError(err)
	}
	s.Require().NoError(s.adminDB.Close())
}

// ResetDatabase recreates the schema from the up migrations.
func (s *IntegrationSuiteBase) ResetDatabase() {
	t := s.T()
	t.Helper()

	migrations, err := filepath.Glob(filepath.Join(projectRoot(t), "db", "migrations", "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	_, err = s.DB.Exec("DROP TABLE IF EXISTS tasks")
	require.NoError(t, err)

	for _, file := range migrations {
		content, err := os.ReadFile(file)
		require.NoError(t, err)
		_, err = s.DB.Exec(string(content))
		require.NoError(t, err, filepath.Base(file))
	}
}

func projectRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", "..", ".."))
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
