/*
 * @module service/catalog/catalog_service_test
 * @description 模式目录读取服务测试
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 样例表构造 -> 目录读取 -> 元数据验证
 * @rules 验证内部表排除、列元数据快照与表不存在错误
 * @dependencies testing, github.com/stretchr/testify/assert, testutil
 * @refs catalog_service.go
 */

package catalog

import (
	"context"
	"errors"
	"testing"

	"dataquality-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTables_ExcludesInternalTables(t *testing.T) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	tdb.CreateUsersTable("users", nil)
	tdb.CreateUsersTable("orders", nil)

	service := NewService(tdb.DB)
	tables, err := service.ListTables(context.Background())
	require.NoError(t, err)

	// 内部簿记表不出现在目录中
	assert.Equal(t, []string{"orders", "users"}, tables)
}

func TestListTables_ExtraExclusions(t *testing.T) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	tdb.CreateUsersTable("users", nil)
	tdb.CreateUsersTable("staging_users", nil)

	t.Setenv("QUALITY_EXCLUDED_TABLES", "staging_users, other")
	service := NewService(tdb.DB)

	tables, err := service.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, tables)
}

func TestDescribeTable(t *testing.T) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	tdb.CreateUsersTable("users", testutil.MakeUserRows(10, 0, 0))

	service := NewService(tdb.DB)
	meta, err := service.DescribeTable(context.Background(), "users")
	require.NoError(t, err)

	assert.Equal(t, "users", meta.Name)
	assert.Equal(t, int64(10), meta.RowCount)
	require.Len(t, meta.Columns, 5)

	names := make([]string, 0, len(meta.Columns))
	for _, col := range meta.Columns {
		names = append(names, col.Name)
	}
	assert.Equal(t, []string{"id", "name", "email", "phone", "created_at"}, names)
	assert.Equal(t, "integer", meta.Columns[0].DataType)
	assert.Equal(t, "timestamp", meta.Columns[4].DataType)
}

func TestDescribeTable_NotFound(t *testing.T) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	service := NewService(tdb.DB)
	_, err := service.DescribeTable(context.Background(), "missing_table")
	require.Error(t, err)
	assert.True(t, IsTableNotFound(err))

	var notFound *TableNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing_table", notFound.Table)
}

func TestDescribeTable_RejectsInvalidIdentifier(t *testing.T) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	service := NewService(tdb.DB)
	for _, name := range []string{"users; DROP TABLE users", "bad-table", "1table", ""} {
		_, err := service.DescribeTable(context.Background(), name)
		assert.True(t, IsTableNotFound(err), name)
	}
}
