package database

import (
	"testing"
	"time"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "with password",
			cfg:  Config{User: "app", Pass: "s3cret", Host: "db", Port: "3306", Name: "comandero"},
			want: "app:s3cret@tcp(db:3306)/comandero?charset=utf8mb4&parseTime=true&loc=UTC",
		},
		{
			name: "empty password omits the colon",
			cfg:  Config{User: "root", Host: "127.0.0.1", Port: "3307", Name: "comandero_test"},
			want: "root@tcp(127.0.0.1:3307)/comandero_test?charset=utf8mb4&parseTime=true&loc=UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.dsn(); got != tt.want {
				t.Errorf("dsn() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPoolDefaults(t *testing.T) {
	got := Config{}.withPoolDefaults()
	if got.MaxOpenConns != 25 || got.MaxIdleConns != 25 || got.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("zero config did not pick defaults: %+v", got)
	}

	// Idle follows open when only open is set; explicit values pass through.
	got = Config{MaxOpenConns: 10}.withPoolDefaults()
	if got.MaxIdleConns != 10 {
		t.Fatalf("MaxIdleConns = %d, want 10", got.MaxIdleConns)
	}
	got = Config{MaxOpenConns: 50, MaxIdleConns: 5, ConnMaxLifetime: time.Hour}.withPoolDefaults()
	if got.MaxOpenConns != 50 || got.MaxIdleConns != 5 || got.ConnMaxLifetime != time.Hour {
		t.Fatalf("explicit config was altered: %+v", got)
	}
}
