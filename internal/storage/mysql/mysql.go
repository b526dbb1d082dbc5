package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/go-sql-driver/mysql"
	"net"
	"shopfloor-kpi/internal/config"
	"strconv"
	"time"
)

type Storage struct {
	db *sql.DB
}

// DSN builds the driver connection string. DATE columns are read as times in the shop
// floor location.
func DSN(cfg config.Database) string {
	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		loc = time.Local
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = loc

	return mc.FormatDSN()
}

func New(ctx context.Context, cfg config.Database) (*Storage, error) {
	const op = "storage.mysql.New"

	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open db: %w", op, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// NewWithDB wraps an already opened connection pool.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	return s.db.Close()
}
