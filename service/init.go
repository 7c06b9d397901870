/*
 * @module service/init
 * @description 服务初始化,负责数据库连接、迁移和全局服务实例的创建
 * @architecture 分层架构 - 服务初始化层
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 数据库初始化 -> 迁移执行 -> 服务实例创建 -> 全局注册
 * @rules 初始化失败直接终止进程;全局服务实例在init阶段完成装配
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs main.go, api/
 */

package service

import (
	"fmt"
	"log"
	"os"
	"time"

	applogger "dataquality-service/logger"
	"dataquality-service/service/catalog"
	"dataquality-service/service/database"
	"dataquality-service/service/dispatch"
	"dataquality-service/service/event"
	"dataquality-service/service/quality"
	"dataquality-service/service/scheduler"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 全局服务实例
var (
	DB                    *gorm.DB
	GlobalCatalogService  *catalog.Service
	GlobalAssessmentStore *quality.AssessmentStore
	GlobalTableAssessor   *quality.TableAssessor
	GlobalAggregator      *quality.Aggregator
	GlobalEventService    *event.Service
	GlobalDispatcher      *dispatch.Dispatcher
	GlobalScheduler       *scheduler.AssessmentScheduler
)

// getEnvWithDefault 获取环境变量,如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func init() {
	applogger.InitLogger()
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("获取数据库实例失败: %v", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("数据库连接成功")
}

// runMigrations 执行数据库迁移
func runMigrations() {
	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库迁移完成")
}

// initServices 创建并装配全局服务实例
func initServices() {
	GlobalCatalogService = catalog.NewService(DB)
	GlobalAssessmentStore = quality.NewAssessmentStore(DB)

	classifier := quality.NewNameHeuristicClassifier()
	calculator := quality.NewMetricCalculator(DB, classifier)
	GlobalTableAssessor = quality.NewTableAssessor(GlobalCatalogService, calculator, GlobalAssessmentStore)
	GlobalAggregator = quality.NewAggregator(GlobalCatalogService, GlobalTableAssessor)

	GlobalEventService = event.NewService(DB)

	var broadcasters []dispatch.ResultBroadcaster
	if os.Getenv("KAFKA_ENABLED") == "true" {
		broadcasters = append(broadcasters, dispatch.NewKafkaBroadcaster())
		log.Println("Kafka广播器已启用")
	}
	if os.Getenv("REDIS_ENABLED") == "true" {
		broadcasters = append(broadcasters, dispatch.NewRedisBroadcaster())
		log.Println("Redis广播器已启用")
	}

	GlobalDispatcher = dispatch.NewDispatcher(GlobalAggregator, GlobalTableAssessor, GlobalAssessmentStore, GlobalEventService, broadcasters...)

	GlobalScheduler = scheduler.NewAssessmentScheduler(GlobalAggregator)
	if os.Getenv("QUALITY_SCHEDULE_ENABLED") == "true" {
		if err := GlobalScheduler.Start(); err != nil {
			log.Printf("启动定时评估调度器失败: %v", err)
		}
	}

	log.Println("服务初始化完成")
}
