// Package storage persists arrangements and pallets in SQLite and offers an
// asynchronous sink that writes submissions in the background.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/piwi3910/TruckLoad/internal/diff"
	"github.com/piwi3910/TruckLoad/internal/engine"
	"github.com/piwi3910/TruckLoad/internal/model"
)

// ErrNotFound is returned when a modified or deleted record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the SQLite persistence collaborator. Each submission is applied
// in one transaction.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "truckload.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection, shared by readers and the async sink.
	db.SetMaxOpenConns(1)
	for _, ddl := range schema {
		if _, err := db.Exec(ddl); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Submit applies the submission synchronously.
func (s *Store) Submit(ctx context.Context, sub engine.Submission) error {
	return s.Save(ctx, sub)
}

// Save applies the unit and pallet change-sets of sub and records the
// container and version. A full submission first clears every stored unit
// and pallet. Either everything is written or nothing is.
func (s *Store) Save(ctx context.Context, sub engine.Submission) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if sub.Full {
		if err := clearArrangement(ctx, tx); err != nil {
			return err
		}
	}
	if err := writeMeta(ctx, tx, sub.Container, sub.Version); err != nil {
		return err
	}
	if err := applyUnits(ctx, tx, sub.Units); err != nil {
		return err
	}
	if err := applyPallets(ctx, tx, sub.Pallets); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Replace overwrites the stored arrangement with units, e.g. after an
// import. Pallets are left untouched.
func (s *Store) Replace(ctx context.Context, container model.Container, units []diff.UnitState) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if err := clearTables(ctx, tx, "units"); err != nil {
		return err
	}
	if err := writeMeta(ctx, tx, container, 0); err != nil {
		return err
	}
	for _, u := range units {
		if err := upsertUnit(ctx, tx, u); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ReplacePallets overwrites every stored pallet, e.g. when restoring a
// backup. Pallets without an id get a new one.
func (s *Store) ReplacePallets(ctx context.Context, pallets []model.Pallet) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if err := clearTables(ctx, tx, "pallet_contents", "pallets"); err != nil {
		return err
	}
	if err := applyPallets(ctx, tx, diff.ChangeSet[model.Pallet]{Added: pallets}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func clearArrangement(ctx context.Context, tx *sql.Tx) error {
	return clearTables(ctx, tx, "units", "pallet_contents", "pallets")
}

func clearTables(ctx context.Context, tx *sql.Tx, tables ...string) error {
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func writeMeta(ctx context.Context, tx *sql.Tx, c model.Container, version uint64) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode container: %w", err)
	}
	const upsert = `INSERT INTO meta(meta_key, value) VALUES(?, ?)
		ON CONFLICT(meta_key) DO UPDATE SET value=excluded.value`
	if _, err := tx.ExecContext(ctx, upsert, metaContainer, string(data)); err != nil {
		return fmt.Errorf("write container: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, metaVersion, strconv.FormatUint(version, 10)); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	return nil
}

func applyUnits(ctx context.Context, tx *sql.Tx, cs diff.ChangeSet[diff.UnitState]) error {
	for _, u := range cs.Added {
		if err := upsertUnit(ctx, tx, u); err != nil {
			return err
		}
	}
	for _, u := range cs.Modified {
		if err := upsertUnit(ctx, tx, u); err != nil {
			return err
		}
	}
	for _, id := range cs.DeletedIDs {
		res, err := tx.ExecContext(ctx, `DELETE FROM units WHERE unit_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete unit %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("delete unit %s: %w", id, ErrNotFound)
		}
	}
	return nil
}

func upsertUnit(ctx context.Context, tx *sql.Tx, u diff.UnitState) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO units
		(unit_id, external_id, x, y, z, length, width, height, weight, rotated, force_placed, removed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(unit_id) DO UPDATE SET
			external_id=excluded.external_id, x=excluded.x, y=excluded.y, z=excluded.z,
			length=excluded.length, width=excluded.width, height=excluded.height,
			weight=excluded.weight, rotated=excluded.rotated,
			force_placed=excluded.force_placed, removed=excluded.removed`,
		u.ID, u.ExternalID, u.Position.X, u.Position.Y, u.Position.Z,
		u.Size.Length, u.Size.Width, u.Size.Height, u.Weight,
		u.Rotated, u.ForcePlaced, u.Removed)
	if err != nil {
		return fmt.Errorf("upsert unit %s: %w", u.ID, err)
	}
	return nil
}

func applyPallets(ctx context.Context, tx *sql.Tx, cs diff.ChangeSet[model.Pallet]) error {
	for _, p := range cs.Added {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO pallets
			(pallet_id, pallet_key, label, length, width, height, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Key, p.Label, p.Size.Length, p.Size.Width, p.Size.Height,
			time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("insert pallet %s: %w", p.Key, err)
		}
		if err := writeContents(ctx, tx, p.ID, p.Contents); err != nil {
			return err
		}
	}

	for _, p := range cs.Modified {
		id, err := resolvePalletID(ctx, tx, p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE pallets SET label = ?, length = ?, width = ?, height = ?
			WHERE pallet_id = ?`, p.Label, p.Size.Length, p.Size.Width, p.Size.Height, id); err != nil {
			return fmt.Errorf("update pallet %s: %w", id, err)
		}
		if err := writeContents(ctx, tx, id, p.Contents); err != nil {
			return err
		}
	}

	for _, id := range cs.DeletedIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pallet_contents WHERE pallet_id = ?`, id); err != nil {
			return fmt.Errorf("delete contents of %s: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM pallets WHERE pallet_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete pallet %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("delete pallet %s: %w", id, ErrNotFound)
		}
	}
	return nil
}

// resolvePalletID finds the stored row of a modified pallet. Pallets
// created in this session carry no id yet and are found by key.
func resolvePalletID(ctx context.Context, tx *sql.Tx, p model.Pallet) (string, error) {
	var id string
	var err error
	if p.ID != "" {
		err = tx.QueryRowContext(ctx, `SELECT pallet_id FROM pallets WHERE pallet_id = ?`, p.ID).Scan(&id)
	} else {
		err = tx.QueryRowContext(ctx, `SELECT pallet_id FROM pallets WHERE pallet_key = ?`, p.Key).Scan(&id)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("update pallet %s: %w", p.Key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("find pallet %s: %w", p.Key, err)
	}
	return id, nil
}

func writeContents(ctx context.Context, tx *sql.Tx, palletID string, contents []model.Content) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM pallet_contents WHERE pallet_id = ?`, palletID); err != nil {
		return fmt.Errorf("clear contents of %s: %w", palletID, err)
	}
	for i, c := range contents {
		if _, err := tx.ExecContext(ctx, `INSERT INTO pallet_contents
			(pallet_id, position, product_id, label, quantity, priority, length, width, height, weight)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			palletID, i, c.ProductID, c.Label, c.Quantity, c.Priority,
			c.Size.Length, c.Size.Width, c.Size.Height, c.Weight); err != nil {
			return fmt.Errorf("insert content %s of %s: %w", c.ProductID, palletID, err)
		}
	}
	return nil
}

// Container returns the stored container. ok is false before the first save.
func (s *Store) Container(ctx context.Context) (c model.Container, ok bool, err error) {
	var raw string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE meta_key = ?`, metaContainer).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Container{}, false, nil
	}
	if err != nil {
		return model.Container{}, false, fmt.Errorf("read container: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return model.Container{}, false, fmt.Errorf("decode container: %w", err)
	}
	return c, true, nil
}

// Version returns the engine version recorded by the last save.
func (s *Store) Version(ctx context.Context) (uint64, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE meta_key = ?`, metaVersion).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return strconv.ParseUint(raw, 10, 64)
}

// Units returns the stored units in insertion order.
func (s *Store) Units(ctx context.Context) ([]diff.UnitState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT unit_id, external_id, x, y, z, length, width, height,
		weight, rotated, force_placed, removed FROM units ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("select units: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []diff.UnitState
	for rows.Next() {
		var u diff.UnitState
		if err := rows.Scan(&u.ID, &u.ExternalID, &u.Position.X, &u.Position.Y, &u.Position.Z,
			&u.Size.Length, &u.Size.Width, &u.Size.Height, &u.Weight,
			&u.Rotated, &u.ForcePlaced, &u.Removed); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.Group = u.ExternalID
		out = append(out, u)
	}
	return out, rows.Err()
}

// Tuples returns the stored arrangement in the wire shape, active units
// first.
func (s *Store) Tuples(ctx context.Context) ([]model.Tuple, error) {
	units, err := s.Units(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Tuple, 0, len(units))
	for _, u := range units {
		if !u.Removed {
			out = append(out, u.Tuple())
		}
	}
	for _, u := range units {
		if u.Removed {
			out = append(out, u.Tuple())
		}
	}
	return out, nil
}

// Pallets returns every stored pallet with its ordered contents.
func (s *Store) Pallets(ctx context.Context) ([]model.Pallet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT pallet_id, pallet_key, label, length, width, height
		FROM pallets ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("select pallets: %w", err)
	}
	var pallets []model.Pallet
	for rows.Next() {
		var p model.Pallet
		if err := rows.Scan(&p.ID, &p.Key, &p.Label, &p.Size.Length, &p.Size.Width, &p.Size.Height); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan pallet: %w", err)
		}
		pallets = append(pallets, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range pallets {
		contents, err := s.contents(ctx, pallets[i].ID)
		if err != nil {
			return nil, err
		}
		pallets[i].Contents = contents
	}
	return pallets, nil
}

// Pallet returns one pallet by persisted id.
func (s *Store) Pallet(ctx context.Context, id string) (model.Pallet, error) {
	p := model.Pallet{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT pallet_key, label, length, width, height FROM pallets WHERE pallet_id = ?`, id).
		Scan(&p.Key, &p.Label, &p.Size.Length, &p.Size.Width, &p.Size.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Pallet{}, fmt.Errorf("pallet %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Pallet{}, fmt.Errorf("select pallet %s: %w", id, err)
	}
	if p.Contents, err = s.contents(ctx, id); err != nil {
		return model.Pallet{}, err
	}
	return p, nil
}

func (s *Store) contents(ctx context.Context, palletID string) ([]model.Content, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT product_id, label, quantity, priority, length, width, height, weight
		FROM pallet_contents WHERE pallet_id = ? ORDER BY position`, palletID)
	if err != nil {
		return nil, fmt.Errorf("select contents of %s: %w", palletID, err)
	}
	defer func() { _ = rows.Close() }()

	contents := []model.Content{}
	for rows.Next() {
		var c model.Content
		if err := rows.Scan(&c.ProductID, &c.Label, &c.Quantity, &c.Priority,
			&c.Size.Length, &c.Size.Width, &c.Size.Height, &c.Weight); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}
