/*
 * @module service/catalog/errors
 * @description 目录读取与评估流程的错误分类定义
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 错误产生 -> 按级别包装 -> 调用方判定处理策略
 * @rules 仅存储不可用错误向上升级为任务级失败,表级与探针级错误在各自层级被吸收
 * @dependencies errors
 * @refs service/quality/
 */

package catalog

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable 存储服务不可达,对整个操作致命
var ErrStorageUnavailable = errors.New("存储服务不可用")

// TableNotFoundError 目标表不存在,对单表评估致命,对批量评估非致命
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("表 %s 不存在", e.Table)
}

// IsTableNotFound 判断错误是否为表不存在
func IsTableNotFound(err error) bool {
	var notFound *TableNotFoundError
	return errors.As(err, &notFound)
}
