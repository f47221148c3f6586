package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cheeseburger9309/AstraSim/internal/metrics"
)

// writeTimeout bounds every individual write to a stream.
const writeTimeout = 30 * time.Second

// client is the write side of one open stream.
type client struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
	ip      string
	id      string
	logger  *slog.Logger

	messagesSent int64
	bytesSent    int64
}

func (c *client) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	return c.sendRaw(data)
}

// sendRaw emits data, which must already be JSON, as one message.
func (c *client) sendRaw(data []byte) error {
	if err := c.emit("data: ", data); err != nil {
		return err
	}
	c.messagesSent++
	metrics.IncStreamMessages()
	return nil
}

// sendKeepalive emits an empty comment.
func (c *client) sendKeepalive() error {
	return c.emit(":", nil)
}

func (c *client) emit(prefix string, payload []byte) error {
	if c.rc != nil {
		if err := c.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			c.logger.Debug("write deadline unsupported", "connection_id", c.id, "error", err)
		}
	}

	buf := make([]byte, 0, len(prefix)+len(payload)+2)
	buf = append(buf, prefix...)
	buf = append(buf, payload...)
	buf = append(buf, '\n', '\n')

	n, err := c.w.Write(buf)
	c.bytesSent += int64(n)
	metrics.AddStreamBytes(int64(n))
	if err != nil {
		return fmt.Errorf("stream %s: %w", c.id, err)
	}
	c.flusher.Flush()
	return nil
}
