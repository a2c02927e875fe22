// Package state persists scan inventories with SQLite. It tracks scan runs,
// the extracted processes/components/flows, and per-file content hashes for
// change reporting across runs.
package state

import (
	"time"

	"github.com/pipelens-labs/pipelens/internal/model"
)

// ScanStatus is the lifecycle state of a scan run.
type ScanStatus string

const (
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// ScanRun is one recorded invocation of the scan orchestrator.
type ScanRun struct {
	ID          string
	ScanID      string
	Status      ScanStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string

	Files      int
	Processes  int
	Components int
	Flows      int
}

// Store is the persistence interface consumed by the CLI commands.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	BeginScan(scanID string) (*ScanRun, error)
	FinishScan(runID string, status ScanStatus, errMsg string, counts ScanRun) error
	GetLatestScan(scanID string) (*ScanRun, error)

	SaveInventory(scanID string, processes []*model.Process, components []*model.Component, flows []model.DataFlow) error
	ListProcesses(scanID string) ([]*model.Process, error)
	ListComponents(scanID string) ([]*model.Component, error)
	ListFlows(scanID string) ([]model.DataFlow, error)

	GetContentHash(path string) (string, error)
	SetContentHash(path, hash, kind string) error
	DeleteContentHash(path string) error
}
