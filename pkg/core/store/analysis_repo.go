// Package store persists lease analyses outside the engine.
// Postgres (JSONB) is primary; without a pool, records live as JSON files.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"lease_economics/pkg/core/analysis"
	"lease_economics/pkg/core/lease"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no analysis is stored for a lease.
var ErrNotFound = errors.New("analysis not found")

// Record is one stored analysis run.
type Record struct {
	RunID     string                 `json:"run_id"`
	LeaseID   string                 `json:"lease_id"`
	LeaseName string                 `json:"lease_name"`
	Lease     lease.LeaseDescription `json:"lease"`
	Analysis  analysis.LeaseAnalysis `json:"analysis"`
	SavedAt   time.Time              `json:"saved_at"`
}

// AnalysisRepo stores the latest analysis per lease id.
type AnalysisRepo struct {
	pool    *pgxpool.Pool
	fileDir string
	now     func() time.Time
}

// NewAnalysisRepo creates a repository. If pool is nil it falls back to files under dir
// (default .cache/lease/analyses).
func NewAnalysisRepo(pool *pgxpool.Pool, dir string) *AnalysisRepo {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "lease", "analyses")
	}
	if pool == nil {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("[WARNING] Check analysis cache dir: %v\n", err)
		}
	}
	return &AnalysisRepo{pool: pool, fileDir: dir, now: time.Now}
}

// Backend names where records go, for logging.
func (r *AnalysisRepo) Backend() string {
	if r.pool != nil {
		return "postgres"
	}
	return "file:" + r.fileDir
}

// Save upserts the analysis of l under its lease id and returns the stored record.
func (r *AnalysisRepo) Save(ctx context.Context, l lease.LeaseDescription, res analysis.LeaseAnalysis) (*Record, error) {
	if l.ID == "" {
		return nil, fmt.Errorf("lease id is required to save an analysis")
	}
	rec := &Record{
		RunID:     uuid.New().String(),
		LeaseID:   l.ID,
		LeaseName: l.Name,
		Lease:     l,
		Analysis:  res,
		SavedAt:   r.now().UTC(),
	}

	if r.pool != nil {
		leaseJSON, err := json.Marshal(l)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal lease: %w", err)
		}
		analysisJSON, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal analysis: %w", err)
		}
		query := `
			INSERT INTO lease_analyses (lease_id, run_id, lease_name, lease_json, analysis_json, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (lease_id)
			DO UPDATE SET
				run_id = EXCLUDED.run_id,
				lease_name = EXCLUDED.lease_name,
				lease_json = EXCLUDED.lease_json,
				analysis_json = EXCLUDED.analysis_json,
				updated_at = EXCLUDED.updated_at;
		`
		if _, err := r.pool.Exec(ctx, query, rec.LeaseID, rec.RunID, rec.LeaseName, leaseJSON, analysisJSON, rec.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to save analysis: %w", err)
		}
		return rec, nil
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := os.WriteFile(r.leasePath(rec.LeaseID), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save to file cache: %w", err)
	}
	return rec, nil
}

// Load returns the latest record for leaseID, or ErrNotFound.
func (r *AnalysisRepo) Load(ctx context.Context, leaseID string) (*Record, error) {
	if r.pool != nil {
		query := `
			SELECT run_id, lease_name, lease_json, analysis_json, updated_at
			FROM lease_analyses
			WHERE lease_id = $1
		`
		var (
			rec          = Record{LeaseID: leaseID}
			leaseJSON    []byte
			analysisJSON []byte
		)
		err := r.pool.QueryRow(ctx, query, leaseID).Scan(&rec.RunID, &rec.LeaseName, &leaseJSON, &analysisJSON, &rec.SavedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load analysis: %w", err)
		}
		if err := json.Unmarshal(leaseJSON, &rec.Lease); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored lease: %w", err)
		}
		if err := json.Unmarshal(analysisJSON, &rec.Analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored analysis: %w", err)
		}
		return &rec, nil
	}

	rec, err := loadRecord(r.leasePath(leaseID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Summary is a list entry without the heavy payload.
type Summary struct {
	RunID     string    `json:"run_id"`
	LeaseID   string    `json:"lease_id"`
	LeaseName string    `json:"lease_name"`
	SavedAt   time.Time `json:"saved_at"`
}

// List returns every stored lease, most recently saved first.
func (r *AnalysisRepo) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	if r.pool != nil {
		rows, err := r.pool.Query(ctx, `SELECT run_id, lease_id, lease_name, updated_at FROM lease_analyses ORDER BY updated_at DESC`)
		if err != nil {
			return nil, fmt.Errorf("failed to list analyses: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var s Summary
			if err := rows.Scan(&s.RunID, &s.LeaseID, &s.LeaseName, &s.SavedAt); err != nil {
				return nil, fmt.Errorf("failed to scan analysis row: %w", err)
			}
			out = append(out, s)
		}
		return out, rows.Err()
	}

	entries, err := os.ReadDir(r.fileDir)
	if err != nil {
		return nil, nil
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		rec, err := loadRecord(filepath.Join(r.fileDir, e.Name()))
		if err != nil {
			fmt.Printf("[STORE] skipping unreadable %s: %v\n", e.Name(), err)
			continue
		}
		out = append(out, Summary{RunID: rec.RunID, LeaseID: rec.LeaseID, LeaseName: rec.LeaseName, SavedAt: rec.SavedAt})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	return out, nil
}

// Internal File Helpers

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

func (r *AnalysisRepo) leasePath(leaseID string) string {
	return filepath.Join(r.fileDir, unsafeChars.ReplaceAllString(leaseID, "_")+".json")
}

func loadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}
