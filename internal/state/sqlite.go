package state

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pipelens-labs/pipelens/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema initializes the database schema.
func (s *SQLiteStore) InitSchema() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Scan run operations ---

// BeginScan records the start of a scan run.
func (s *SQLiteStore) BeginScan(scanID string) (*ScanRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &ScanRun{
		ID:        generateID(),
		ScanID:    scanID,
		Status:    ScanStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO scan_runs (id, scan_id, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.ScanID, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to begin scan run: %w", err)
	}

	return run, nil
}

// FinishScan marks a scan run as finished with its final status and counts.
func (s *SQLiteStore) FinishScan(runID string, status ScanStatus, errMsg string, counts ScanRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE scan_runs SET status = ?, completed_at = ?, error = ?,
		 files = ?, processes = ?, components = ?, flows = ? WHERE id = ?`,
		status, now, errorPtr,
		counts.Files, counts.Processes, counts.Components, counts.Flows, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish scan run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("scan run not found: %s", runID)
	}
	return nil
}

// GetLatestScan retrieves the most recent run for a scan identifier, or nil
// when none exists.
func (s *SQLiteStore) GetLatestScan(scanID string) (*ScanRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &ScanRun{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRow(
		`SELECT id, scan_id, status, started_at, completed_at, error,
		 files, processes, components, flows
		 FROM scan_runs WHERE scan_id = ? ORDER BY started_at DESC LIMIT 1`,
		scanID,
	).Scan(&run.ID, &run.ScanID, &run.Status, &run.StartedAt, &completedAt, &errMsg,
		&run.Files, &run.Processes, &run.Components, &run.Flows)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest scan run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}

// --- Inventory operations ---

// SaveInventory replaces the stored inventory for a scan identifier in one
// transaction. Rows for entities that vanished from the source tree are
// removed rather than left stale.
func (s *SQLiteStore) SaveInventory(scanID string, processes []*model.Process, components []*model.Component, flows []model.DataFlow) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"processes", "components", "flows"} {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE scan_id = ?", table), scanID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, p := range processes {
		componentIDs, err := json.Marshal(p.ComponentIDs)
		if err != nil {
			return fmt.Errorf("failed to encode component ids: %w", err)
		}
		params, err := marshalParams(p.Parameters)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO processes (id, scan_id, name, system, type, component_ids, parameters)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, scanID, p.Name, p.System, p.Type, string(componentIDs), params,
		)
		if err != nil {
			return fmt.Errorf("failed to save process %s: %w", p.Name, err)
		}
	}

	for _, c := range components {
		inputs, err := marshalStrings(c.InputDatasets)
		if err != nil {
			return err
		}
		outputs, err := marshalStrings(c.OutputDatasets)
		if err != nil {
			return err
		}
		schema, err := json.Marshal(c.Schema)
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		params, err := marshalParams(c.Parameters)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO components
			 (id, scan_id, process_id, name, role, input_datasets, output_datasets, schema_fields, transformation_text, parameters)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, scanID, c.ProcessID, c.Name, c.Role.String(),
			inputs, outputs, string(schema), c.TransformationText, params,
		)
		if err != nil {
			return fmt.Errorf("failed to save component %s: %w", c.Name, err)
		}
	}

	for _, f := range flows {
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO flows (scan_id, source_id, target_id, dataset_name, flow_type, provenance)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			scanID, f.SourceID, f.TargetID, f.DatasetName, f.Type.String(), f.Provenance.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to save flow %s -> %s: %w", f.SourceID, f.TargetID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inventory: %w", err)
	}
	return nil
}

// ListProcesses returns the stored processes for a scan identifier, in name
// order.
func (s *SQLiteStore) ListProcesses(scanID string) ([]*model.Process, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, name, system, type, component_ids, parameters
		 FROM processes WHERE scan_id = ? ORDER BY name`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	defer rows.Close()

	var processes []*model.Process
	for rows.Next() {
		p := &model.Process{}
		var componentIDs, params string
		if err := rows.Scan(&p.ID, &p.Name, &p.System, &p.Type, &componentIDs, &params); err != nil {
			return nil, fmt.Errorf("failed to scan process row: %w", err)
		}
		if err := json.Unmarshal([]byte(componentIDs), &p.ComponentIDs); err != nil {
			return nil, fmt.Errorf("failed to decode component ids: %w", err)
		}
		if p.Parameters, err = unmarshalParams(params); err != nil {
			return nil, err
		}
		processes = append(processes, p)
	}
	return processes, rows.Err()
}

// ListComponents returns the stored components for a scan identifier, in
// name order.
func (s *SQLiteStore) ListComponents(scanID string) ([]*model.Component, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, process_id, name, role, input_datasets, output_datasets, schema_fields, transformation_text, parameters
		 FROM components WHERE scan_id = ? ORDER BY name`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}
	defer rows.Close()

	var components []*model.Component
	for rows.Next() {
		c := &model.Component{}
		var role, inputs, outputs, schema, params string
		if err := rows.Scan(&c.ID, &c.ProcessID, &c.Name, &role, &inputs, &outputs, &schema, &c.TransformationText, &params); err != nil {
			return nil, fmt.Errorf("failed to scan component row: %w", err)
		}
		c.Role = model.ParseRole(role)
		if err := json.Unmarshal([]byte(inputs), &c.InputDatasets); err != nil {
			return nil, fmt.Errorf("failed to decode input datasets: %w", err)
		}
		if err := json.Unmarshal([]byte(outputs), &c.OutputDatasets); err != nil {
			return nil, fmt.Errorf("failed to decode output datasets: %w", err)
		}
		if err := json.Unmarshal([]byte(schema), &c.Schema); err != nil {
			return nil, fmt.Errorf("failed to decode schema: %w", err)
		}
		if c.Parameters, err = unmarshalParams(params); err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

// ListFlows returns the stored flows for a scan identifier.
func (s *SQLiteStore) ListFlows(scanID string) ([]model.DataFlow, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT source_id, target_id, dataset_name, flow_type, provenance
		 FROM flows WHERE scan_id = ? ORDER BY source_id, target_id`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	var flows []model.DataFlow
	for rows.Next() {
		var f model.DataFlow
		var flowType, provenance string
		if err := rows.Scan(&f.SourceID, &f.TargetID, &f.DatasetName, &flowType, &provenance); err != nil {
			return nil, fmt.Errorf("failed to scan flow row: %w", err)
		}
		f.Type = model.ParseFlowType(flowType)
		f.Provenance = model.ParseProvenance(provenance)
		flows = append(flows, f)
	}
	return flows, rows.Err()
}

// --- Content hash operations ---

// GetContentHash retrieves the content hash for a file path, or "" when no
// record exists.
func (s *SQLiteStore) GetContentHash(filePath string) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}

	var hash string
	err := s.db.QueryRow(
		`SELECT content_hash FROM content_hashes WHERE file_path = ?`, filePath,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get content hash: %w", err)
	}
	return hash, nil
}

// SetContentHash stores the content hash for a file path.
func (s *SQLiteStore) SetContentHash(filePath, hash, fileType string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO content_hashes (file_path, content_hash, file_type, updated_at)
		 VALUES (?, ?, ?, ?)`,
		filePath, hash, fileType, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set content hash: %w", err)
	}
	return nil
}

// DeleteContentHash removes the content hash for a file path.
func (s *SQLiteStore) DeleteContentHash(filePath string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.Exec(`DELETE FROM content_hashes WHERE file_path = ?`, filePath); err != nil {
		return fmt.Errorf("failed to delete content hash: %w", err)
	}
	return nil
}

func marshalStrings(vals []string) (string, error) {
	if vals == nil {
		vals = []string{}
	}
	data, err := json.Marshal(vals)
	if err != nil {
		return "", fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(data), nil
}

func marshalParams(params map[string]string) (string, error) {
	if params == nil {
		params = map[string]string{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode parameters: %w", err)
	}
	return string(data), nil
}

func unmarshalParams(data string) (map[string]string, error) {
	var params map[string]string
	if err := json.Unmarshal([]byte(data), &params); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	if len(params) == 0 {
		return nil, nil
	}
	return params, nil
}
