/*
 * @module service/catalog/catalog_service
 * @description 模式目录读取服务,枚举可评估的用户表并提供单表行数与列元数据快照
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 表清单查询 -> 排除内部表 -> 单表元数据描述 -> 评估流程消费
 * @rules 内部簿记表永不参与评估;读取无副作用;元数据为每次评估新建的只读快照
 * @dependencies gorm.io/gorm
 * @refs service/quality/, service/models/
 */

package catalog

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// 内部簿记表,永不参与评估
var internalTables = []string{
	"quality_assessment_records",
	"sse_events",
	"sse_connections",
	"schema_migrations",
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ColumnMetadata 列元数据
type ColumnMetadata struct {
	Name         string  `json:"name"`
	DataType     string  `json:"data_type"`
	IsNullable   bool    `json:"is_nullable"`
	DefaultValue *string `json:"default_value,omitempty"`
	MaxLength    *int    `json:"max_length,omitempty"`
}

// TableMetadata 表元数据只读快照,每次评估新建,用后即弃
type TableMetadata struct {
	Name     string           `json:"name"`
	RowCount int64            `json:"row_count"`
	Columns  []ColumnMetadata `json:"columns"`
}

// Service 模式目录读取服务
type Service struct {
	db       *gorm.DB
	excluded map[string]bool
}

// NewService 创建目录读取服务实例
// 排除集为内部簿记表加 QUALITY_EXCLUDED_TABLES 环境变量中的逗号分隔表名
func NewService(db *gorm.DB) *Service {
	excluded := make(map[string]bool)
	for _, name := range internalTables {
		excluded[name] = true
	}
	if extra := os.Getenv("QUALITY_EXCLUDED_TABLES"); extra != "" {
		for _, name := range strings.Split(extra, ",") {
			if name = strings.TrimSpace(name); name != "" {
				excluded[name] = true
			}
		}
	}

	return &Service{db: db, excluded: excluded}
}

// ListTables 列出所有可评估的用户表名
func (s *Service) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	var err error

	switch s.db.Dialector.Name() {
	case "sqlite":
		err = s.db.WithContext(ctx).
			Raw(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`).
			Scan(&names).Error
	default:
		err = s.db.WithContext(ctx).
			Raw(`SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`).
			Scan(&names).Error
	}
	if err != nil {
		return nil, fmt.Errorf("%w: 查询表清单失败: %v", ErrStorageUnavailable, err)
	}

	tables := make([]string, 0, len(names))
	for _, name := range names {
		if !s.excluded[name] {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

// DescribeTable 返回单表的行数与列元数据
func (s *Service) DescribeTable(ctx context.Context, name string) (*TableMetadata, error) {
	if !identifierPattern.MatchString(name) {
		return nil, &TableNotFoundError{Table: name}
	}

	columns, err := s.describeColumns(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, &TableNotFoundError{Table: name}
	}

	var rowCount int64
	if err := s.db.WithContext(ctx).
		Raw(fmt.Sprintf(`SELECT COUNT(*) FROM %q`, name)).
		Scan(&rowCount).Error; err != nil {
		return nil, fmt.Errorf("%w: 统计表 %s 行数失败: %v", ErrStorageUnavailable, name, err)
	}

	return &TableMetadata{
		Name:     name,
		RowCount: rowCount,
		Columns:  columns,
	}, nil
}

// describeColumns 按方言查询列元数据
func (s *Service) describeColumns(ctx context.Context, name string) ([]ColumnMetadata, error) {
	if s.db.Dialector.Name() == "sqlite" {
		return s.describeColumnsSQLite(ctx, name)
	}
	return s.describeColumnsPostgres(ctx, name)
}

func (s *Service) describeColumnsPostgres(ctx context.Context, name string) ([]ColumnMetadata, error) {
	var rows []struct {
		ColumnName             string
		DataType               string
		IsNullable             string
		ColumnDefault          *string
		CharacterMaximumLength *int
	}
	err := s.db.WithContext(ctx).
		Raw(`SELECT column_name, data_type, is_nullable, column_default, character_maximum_length
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?
			ORDER BY ordinal_position`, name).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: 查询表 %s 列信息失败: %v", ErrStorageUnavailable, name, err)
	}

	columns := make([]ColumnMetadata, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, ColumnMetadata{
			Name:         row.ColumnName,
			DataType:     strings.ToLower(row.DataType),
			IsNullable:   row.IsNullable == "YES",
			DefaultValue: row.ColumnDefault,
			MaxLength:    row.CharacterMaximumLength,
		})
	}
	return columns, nil
}

func (s *Service) describeColumnsSQLite(ctx context.Context, name string) ([]ColumnMetadata, error) {
	var rows []struct {
		Name      string
		Type      string
		NotNull   int `gorm:"column:notnull"`
		DfltValue *string
	}
	err := s.db.WithContext(ctx).
		Raw(fmt.Sprintf(`PRAGMA table_info(%q)`, name)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: 查询表 %s 列信息失败: %v", ErrStorageUnavailable, name, err)
	}

	columns := make([]ColumnMetadata, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, ColumnMetadata{
			Name:         row.Name,
			DataType:     strings.ToLower(row.Type),
			IsNullable:   row.NotNull == 0,
			DefaultValue: row.DfltValue,
		})
	}
	return columns, nil
}
