package testutil

import (
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// NewNullLogger returns a logger that discards output and a hook recording
// every entry.
func NewNullLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}
