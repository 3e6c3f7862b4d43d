package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"resumeStudio/internal/auth"
	"resumeStudio/internal/config"
	"resumeStudio/internal/database"
)

func main() {
	_ = godotenv.Load()

	var (
		username = flag.String("username", "", "账号用户名（必填）")
		reset    = flag.Bool("reset", false, "账号已存在时重置为新的随机密码")
		dbHost   = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort   = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName   = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
	)
	flag.Parse()

	u := strings.TrimSpace(*username)
	if u == "" {
		log.Fatal("missing required flag: --username")
	}

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}
	if *dbHost != "" {
		dbCfg.Host = *dbHost
	}
	if *dbPort > 0 {
		dbCfg.Port = *dbPort
	}
	if *dbName != "" {
		dbCfg.Name = *dbName
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	db, err := database.InitDatabase(dbCfg, logger)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	password, err := auth.GenerateOneTimePassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	created, err := upsertAccount(context.Background(), database.NewUserStore(db), u, hashed, *reset)
	if err != nil {
		log.Fatal(err)
	}

	if created {
		fmt.Printf("已创建账号：\n")
	} else {
		fmt.Printf("已重置账号密码：\n")
	}
	fmt.Printf("用户名: %s\n", u)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：请登录后通过 POST /v1/auth/password 修改密码（该密码仅显示一次）。\n")
}

// upsertAccount creates the user, or replaces its password hash when reset is set.
func upsertAccount(ctx context.Context, users *database.UserStore, username, hashed string, reset bool) (created bool, err error) {
	_, err = users.Create(ctx, username, hashed)
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, database.ErrUsernameTaken):
		return false, err
	case !reset:
		return false, fmt.Errorf("user %q already exists (use --reset to issue a new password)", username)
	}

	existing, err := users.FindByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if err := users.SetPassword(ctx, existing.ID, hashed); err != nil {
		return false, fmt.Errorf("reset password: %w", err)
	}
	return false, nil
}
