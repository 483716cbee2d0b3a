package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pg-backend/models"
)

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	c := baseMySQLConfig()
	c.User = u.User.Username()
	c.Passwd, _ = u.User.Password()
	c.Addr = u.Hostname() + ":" + port
	c.DBName = dbName
	for k, v := range u.Query() {
		if len(v) > 0 {
			c.Params[k] = v[0]
		}
	}
	return c.FormatDSN(), nil
}

func baseMySQLConfig() *mysqldriver.Config {
	c := mysqldriver.NewConfig()
	c.Net = "tcp"
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c
}

// ResolveMySQLDSN picks MYSQL_URL, then DATABASE_URL, then the DB_* keys.
// URLs may be mysql:// URLs or raw driver DSNs.
func ResolveMySQLDSN(cfg *Config) (string, error) {
	raw := strings.TrimSpace(cfg.MySQLURL)
	if raw == "" {
		raw = strings.TrimSpace(cfg.DatabaseURL)
	}
	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		if _, err := mysqldriver.ParseDSN(raw); err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		return raw, nil
	}

	c := baseMySQLConfig()
	c.User = cfg.DBUser
	c.Passwd = cfg.DBPass
	c.Addr = cfg.DBHost + ":" + cfg.DBPort
	c.DBName = cfg.DBName
	return c.FormatDSN(), nil
}

// ConnectDatabase opens MySQL, migrates the schema and seeds the room pool.
func ConnectDatabase(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	dsn, err := ResolveMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if strings.EqualFold(cfg.LogLevel, "debug") {
		level = logger.Info
	}
	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := SeedRooms(db); err != nil {
		return nil, err
	}
	log.Info("database ready", zap.String("database", dbNameOf(dsn)))
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Admin{},
		&models.Session{},
		&models.Room{},
		&models.Guest{},
		&models.PaymentRecord{},
		&models.AuditEntry{},
	)
}

// SeedRooms inserts any room of the fixed pool that is missing. Existing
// rows are left alone.
func SeedRooms(db *gorm.DB) error {
	for _, r := range models.AllRooms() {
		room := r
		if err := db.Where(models.Room{Number: r.Number}).FirstOrCreate(&room).Error; err != nil {
			return fmt.Errorf("seed room %d: %w", r.Number, err)
		}
	}
	return nil
}

func dbNameOf(dsn string) string {
	c, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return ""
	}
	return c.DBName
}
