// @title AI Algorithms Academy API
// @version 1.0
// @description AI 算法学习平台的后端服务：算法目录、学习进度、成就、学习分析与 AI 助教。

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:3001
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"ai_academy_backend/internal/app"
	"ai_academy_backend/internal/config"
	"ai_academy_backend/pkg/database"
	"flag"
	"log"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件所在目录")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	// 迁移完成后直接退出
	if *migrateOnly {
		if err := database.Close(application.DB); err != nil {
			log.Printf("close database: %v", err)
		}
		log.Println("数据库迁移完成，退出程序")
		return
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
