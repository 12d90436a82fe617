package storage

import (
	"os"
	"testing"

	"github.com/m3rciful/ridebot/core/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(nil); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
