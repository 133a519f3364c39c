package recorder

import "github.com/alfarreca/marketscan/internal/model"

// Recorder persists finished scan reports for later analysis. Recording is
// best-effort from the caller's point of view: a failed insert never fails
// the scan itself.
type Recorder interface {
	RecordScan(report *model.ScanReport) error
	Close() error
}
