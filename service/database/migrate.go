/*
 * @module service/database/migrate
 * @description 数据库迁移,自动创建服务自身的元数据表
 * @architecture 分层架构 - 数据访问层
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 服务启动 -> 自动迁移 -> 表结构就绪
 * @rules 仅迁移服务自身的元数据表,不触碰用户业务表
 * @dependencies gorm.io/gorm
 * @refs service/models/
 */

package database

import (
	"fmt"

	"dataquality-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移服务元数据表
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.QualityAssessmentRecord{},
		&models.SSEEvent{},
		&models.SSEConnection{},
	); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	return nil
}
