package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), mr.Addr(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", time.Minute).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
}

func TestNewReportsUnreachableAddr(t *testing.T) {
	_, err := New(context.Background(), "127.0.0.1:1", 100*time.Millisecond)
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !strings.Contains(err.Error(), "altiplano/cache") {
		t.Fatalf("error %q should carry the package prefix", err)
	}
}
