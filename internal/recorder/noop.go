package recorder

import "github.com/alfarreca/marketscan/internal/model"

// NoopRecorder is used when no database path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ *model.ScanReport) error { return nil }
func (n *NoopRecorder) Close() error                         { return nil }
