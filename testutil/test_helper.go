/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数,提供内存数据库与样例业务表工厂
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具,确保测试环境的一致性
 * @dependencies gorm, sqlite
 * @refs service/models
 */

package testutil

import (
	"fmt"
	"time"

	"dataquality-service/service/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移服务元数据模型
	err = db.AutoMigrate(
		&models.QualityAssessmentRecord{},
		&models.SSEEvent{},
		&models.SSEConnection{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"quality_assessment_records",
		"sse_events",
		"sse_connections",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// UserRow 样例用户表行数据
type UserRow struct {
	Name      string
	Email     interface{} // nil 表示 NULL
	Phone     interface{}
	CreatedAt string
}

// CreateUsersTable 创建样例用户表并插入行数据
func (tdb *TestDB) CreateUsersTable(tableName string, rows []UserRow) {
	ddl := fmt.Sprintf(`CREATE TABLE %s (
		id INTEGER PRIMARY KEY,
		name TEXT,
		email TEXT,
		phone TEXT,
		created_at TIMESTAMP
	)`, tableName)
	if err := tdb.DB.Exec(ddl).Error; err != nil {
		panic(fmt.Sprintf("failed to create table %s: %v", tableName, err))
	}

	for _, row := range rows {
		err := tdb.DB.Exec(
			fmt.Sprintf("INSERT INTO %s (name, email, phone, created_at) VALUES (?, ?, ?, ?)", tableName),
			row.Name, row.Email, row.Phone, row.CreatedAt,
		).Error
		if err != nil {
			panic(fmt.Sprintf("failed to insert into %s: %v", tableName, err))
		}
	}
}

// MakeUserRows 批量生成用户行: total 行中前 nullEmails 行邮箱为 NULL,
// 随后 badEmails 行为格式错误的邮箱,其余为合法邮箱
func MakeUserRows(total, nullEmails, badEmails int) []UserRow {
	createdAt := time.Now().AddDate(0, 0, -1).Format("2006-01-02 15:04:05")
	rows := make([]UserRow, 0, total)
	for i := 0; i < total; i++ {
		row := UserRow{
			Name:      fmt.Sprintf("user%d", i),
			Phone:     fmt.Sprintf("138%08d", i),
			CreatedAt: createdAt,
		}
		switch {
		case i < nullEmails:
			row.Email = nil
		case i < nullEmails+badEmails:
			row.Email = fmt.Sprintf("bad-email-%d", i)
		default:
			row.Email = fmt.Sprintf("user%d@example.com", i)
		}
		rows = append(rows, row)
	}
	return rows
}
