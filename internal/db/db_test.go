package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/models"
)

func TestNormalizeDSN(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost:5432/donorlink", "postgres://u:p@localhost:5432/donorlink"},
		{"  host=localhost user=app dbname=donorlink  ", "host=localhost user=app dbname=donorlink sslmode=disable"},
		{"host=localhost user=app dbname=donorlink sslmode=require", "host=localhost user=app dbname=donorlink sslmode=require"},
		{`"host=localhost dbname=d"`, "host=localhost dbname=d sslmode=disable"},
		{"", ""},
		{"garbage", "garbage"},
	}
	for _, c := range cases {
		if got := NormalizeDSN(c.in); got != c.want {
			t.Errorf("NormalizeDSN(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSeedIdempotent(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file:seedtest?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	seed(gdb)
	seed(gdb)

	var ngoCount, donorCount int64
	gdb.Model(&models.NGO{}).Count(&ngoCount)
	gdb.Model(&models.Donor{}).Count(&donorCount)
	if ngoCount != 2 || donorCount != 1 {
		t.Fatalf("double seed must not duplicate rows: ngos=%d donors=%d", ngoCount, donorCount)
	}

	var ngo models.NGO
	if err := gdb.Where("city = ?", "Springfield").First(&ngo).Error; err != nil {
		t.Fatalf("seeded Springfield NGO missing: %v", err)
	}
}
