// Package logging builds the logrus loggers used by the CLI and the daemon.
package logging

import (
	"io"
	"os"

	"github.com/mj1618/deskctl/internal/model"
	"github.com/sirupsen/logrus"
)

// New returns a logger at level writing to out, or stderr when out is nil.
func New(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, model.NewError(model.KindConfiguration, "log level", err)
	}
	if out == nil {
		out = os.Stderr
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger, nil
}
