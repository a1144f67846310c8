// seed 创建初始管理员账号
//
// 用法：
//
//	go run ./cmd/seed -email admin@school.local -first Admin -last User
//
// 密码从环境变量 SEED_ADMIN_PASSWORD 读取，避免出现在 shell 历史中。
// 账号已存在时跳过；传入 -reset 时重置其密码并重新启用。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"school-records/config"
	"school-records/internal/model"
	"school-records/internal/repository"
	"school-records/pkg/database"
	applogger "school-records/pkg/logger"
)

const minPasswordLen = 8

func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径（默认按 config.Load 的查找顺序）")
		email      = flag.String("email", "admin@school.local", "管理员邮箱")
		firstName  = flag.String("first", "System", "名")
		lastName   = flag.String("last", "Admin", "姓")
		reset      = flag.Bool("reset", false, "账号已存在时重置密码")
	)
	flag.Parse()

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if len(password) < minPasswordLen {
		fmt.Fprintf(os.Stderr, "SEED_ADMIN_PASSWORD 未设置或少于 %d 位\n", minPasswordLen)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()

	if _, err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := repository.NewRepository(db)
	created, err := seedAdmin(ctx, repo, adminSeed{
		Email:     strings.ToLower(strings.TrimSpace(*email)),
		FirstName: *firstName,
		LastName:  *lastName,
		Password:  password,
		Reset:     *reset,
	})
	if err != nil {
		logger.Fatal("创建管理员失败", zap.String("email", *email), zap.Error(err))
	}

	if created {
		logger.Info("管理员已创建", zap.String("email", *email))
	} else {
		logger.Info("管理员已存在", zap.String("email", *email), zap.Bool("reset", *reset))
	}
}

type adminSeed struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Reset     bool
}

// seedAdmin 返回是否新建了账号
func seedAdmin(ctx context.Context, repo *repository.Repository, in adminSeed) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	var created bool
	err = repo.Transaction(ctx, func(tx *repository.Repository) error {
		existing, err := tx.User.GetByEmail(ctx, in.Email)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			return tx.User.Create(ctx, &model.User{
				Email:          in.Email,
				FirstName:      in.FirstName,
				LastName:       in.LastName,
				Role:           model.RoleAdmin,
				IsActive:       true,
				HashedPassword: string(hash),
			})
		case err != nil:
			return err
		}

		if existing.Role != model.RoleAdmin {
			return fmt.Errorf("邮箱 %s 已被 %s 账号占用", in.Email, existing.Role)
		}
		if !in.Reset {
			return nil
		}
		existing.HashedPassword = string(hash)
		existing.IsActive = true
		return tx.User.Update(ctx, existing)
	})
	return created, err
}
