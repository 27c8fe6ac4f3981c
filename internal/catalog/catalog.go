// Copyright Ming Liu, 2025. All rights reserved.

// Package catalog persists crawl results in a SQLite database so repeated
// runs can resume, skip finished downloads, and answer queries without
// re-crawling.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

const dbFile = "crawler.db"

// Store manages the crawl catalog SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database under dir, creating the
// schema when missing.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conferences (
			code TEXT PRIMARY KEY,
			name TEXT,
			root_url TEXT,
			year INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			conference TEXT NOT NULL REFERENCES conferences(code),
			paper_id TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			institutions TEXT,
			abstract TEXT,
			doi TEXT,
			session_id TEXT,
			page_number TEXT,
			PRIMARY KEY (conference, paper_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_session ON papers(conference, session_id)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			conference TEXT NOT NULL,
			paper_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			url TEXT,
			available INTEGER NOT NULL DEFAULT 0,
			downloaded INTEGER NOT NULL DEFAULT 0,
			local_path TEXT,
			PRIMARY KEY (conference, paper_id, kind)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveConference upserts one conference with all its papers and artifacts
// in a single transaction.
func (s *Store) SaveConference(data types.ConferenceData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	conf := data.Conference
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO conferences (code, name, root_url, year) VALUES (?, ?, ?, ?)`,
		conf.Code, conf.Name, conf.RootURL, conf.Year,
	); err != nil {
		return fmt.Errorf("saving conference %s: %w", conf.Code, err)
	}

	for _, p := range data.Papers {
		if err := savePaper(tx, conf.Code, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func savePaper(tx *sql.Tx, conference string, p types.PaperRecord) error {
	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return fmt.Errorf("encoding authors for %s: %w", p.PaperID, err)
	}
	institutions, err := json.Marshal(p.Institutions)
	if err != nil {
		return fmt.Errorf("encoding institutions for %s: %w", p.PaperID, err)
	}

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO papers
			(conference, paper_id, title, authors, institutions, abstract, doi, session_id, page_number)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conference, p.PaperID, p.Title, string(authors), string(institutions),
		p.Abstract, p.DOI, p.SessionID, p.PageNumber,
	); err != nil {
		return fmt.Errorf("saving paper %s: %w", p.PaperID, err)
	}

	for kind, info := range p.Artifacts {
		if _, err := tx.Exec(
			`INSERT INTO artifacts (conference, paper_id, kind, url, available)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (conference, paper_id, kind) DO UPDATE
				SET url = excluded.url, available = excluded.available`,
			conference, p.PaperID, string(kind), info.URL, info.Available,
		); err != nil {
			return fmt.Errorf("saving artifact %s/%s: %w", p.PaperID, kind, err)
		}
	}
	return nil
}

// Conferences returns every catalogued conference ordered by code.
func (s *Store) Conferences() ([]types.ConferenceRecord, error) {
	rows, err := s.db.Query(`SELECT code, name, root_url, year FROM conferences ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("querying conferences: %w", err)
	}
	defer rows.Close()

	var confs []types.ConferenceRecord
	for rows.Next() {
		var c types.ConferenceRecord
		if err := rows.Scan(&c.Code, &c.Name, &c.RootURL, &c.Year); err != nil {
			return nil, fmt.Errorf("scanning conference: %w", err)
		}
		confs = append(confs, c)
	}
	return confs, rows.Err()
}

// Papers returns every paper of a conference with its artifacts, ordered by
// paper id.
func (s *Store) Papers(conference string) ([]types.PaperRecord, error) {
	rows, err := s.db.Query(
		`SELECT paper_id, title, authors, institutions, abstract, doi, session_id, page_number
			FROM papers WHERE conference = ? ORDER BY paper_id`, conference)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.PaperRecord
	for rows.Next() {
		var p types.PaperRecord
		var authors, institutions string
		if err := rows.Scan(&p.PaperID, &p.Title, &authors, &institutions,
			&p.Abstract, &p.DOI, &p.SessionID, &p.PageNumber); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		if err := json.Unmarshal([]byte(authors), &p.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors for %s: %w", p.PaperID, err)
		}
		if err := json.Unmarshal([]byte(institutions), &p.Institutions); err != nil {
			return nil, fmt.Errorf("decoding institutions for %s: %w", p.PaperID, err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range papers {
		artifacts, err := s.artifacts(conference, papers[i].PaperID)
		if err != nil {
			return nil, err
		}
		papers[i].Artifacts = artifacts
	}
	return papers, nil
}

func (s *Store) artifacts(conference, paperID string) (map[types.ArtifactKind]types.ArtifactInfo, error) {
	rows, err := s.db.Query(
		`SELECT kind, url, available FROM artifacts WHERE conference = ? AND paper_id = ?`,
		conference, paperID)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts for %s: %w", paperID, err)
	}
	defer rows.Close()

	artifacts := make(map[types.ArtifactKind]types.ArtifactInfo)
	for rows.Next() {
		var kind string
		var info types.ArtifactInfo
		if err := rows.Scan(&kind, &info.URL, &info.Available); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		artifacts[types.ArtifactKind(kind)] = info
	}
	return artifacts, rows.Err()
}

// MarkDownloaded records where an artifact was saved on disk.
func (s *Store) MarkDownloaded(conference, paperID string, kind types.ArtifactKind, path string) error {
	_, err := s.db.Exec(
		`UPDATE artifacts SET downloaded = 1, local_path = ?
			WHERE conference = ? AND paper_id = ? AND kind = ?`,
		path, conference, paperID, string(kind))
	if err != nil {
		return fmt.Errorf("marking %s/%s downloaded: %w", paperID, kind, err)
	}
	return nil
}

// IsDownloaded reports whether an artifact was already transferred.
func (s *Store) IsDownloaded(conference, paperID string, kind types.ArtifactKind) (bool, error) {
	var downloaded bool
	err := s.db.QueryRow(
		`SELECT downloaded FROM artifacts WHERE conference = ? AND paper_id = ? AND kind = ?`,
		conference, paperID, string(kind)).Scan(&downloaded)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s/%s: %w", paperID, kind, err)
	}
	return downloaded, nil
}

// Counts returns the catalogued conference and paper totals.
func (s *Store) Counts() (conferences, papers int, err error) {
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM conferences`).Scan(&conferences); err != nil {
		return 0, 0, fmt.Errorf("counting conferences: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM papers`).Scan(&papers); err != nil {
		return 0, 0, fmt.Errorf("counting papers: %w", err)
	}
	return conferences, papers, nil
}
