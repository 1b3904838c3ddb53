package utils

import (
	"io"

	"github.com/MrSnakeDoc/bookshelf/internal/logger"
)

// CloseLogged closes c and logs a failure under name.
// Used on shutdown where nothing else can be done with the error.
func CloseLogged(c io.Closer, name string, log logger.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", name), logger.Error(err))
		return
	}
	log.Debug("closed", logger.String("resource", name))
}
