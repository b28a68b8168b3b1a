package alert

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/couchcryptid/disaster-warning-service/internal/domain"
)

// DeliveryLog appends one line per delivered alert to an append-only file:
//
//	[<RFC 3339 UTC timestamp>] <title> | <severity>
type DeliveryLog struct {
	path string
	mu   sync.Mutex
}

// NewDeliveryLog creates the log writer. The file and its directory are
// created on first append.
func NewDeliveryLog(path string) *DeliveryLog {
	return &DeliveryLog{path: path}
}

// Append writes the delivery line for an alert.
func (d *DeliveryLog) Append(alert domain.Alert, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if dir := filepath.Dir(d.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create delivery log dir: %w", err)
		}
	}

	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open delivery log: %w", err)
	}
	defer func() { _ = f.Close() }()

	line := fmt.Sprintf("[%s] %s | %s\n", at.UTC().Format(time.RFC3339), alert.Title, alert.Severity)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append delivery log: %w", err)
	}
	return nil
}
