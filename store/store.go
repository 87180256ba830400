// Package store saves sessions in an SQLite database.
//
// Decoded pixels are never stored. A sprite is saved as its original source
// bytes and decoded again, under the same id, when the session is loaded.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/golang/glog"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-spritesheet/session"
	"badc0de.net/pkg/go-spritesheet/sprite"
)

// ErrNotFound is returned when no session has the requested name.
var ErrNotFound = errors.New("store: no such session")

type Store struct {
	db *sql.DB
}

// Open opens or creates the database in file.
func Open(file string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, errors.Wrapf(err, "store: opening %s", file)
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS session (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE, saved INTEGER NOT NULL, sprite_order TEXT NOT NULL, grid TEXT NOT NULL, animation TEXT NOT NULL, export TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store: creating session table")
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS sprite (session_id INTEGER NOT NULL, id TEXT NOT NULL, position INTEGER NOT NULL, name TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, format TEXT NOT NULL, source BLOB NOT NULL, PRIMARY KEY(session_id, id), FOREIGN KEY(session_id) REFERENCES session(id) ON DELETE CASCADE)"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store: creating sprite table")
	}

	return &Store{
		db: db,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores snap under name, replacing any session saved under it before.
// Sprites without source bytes cannot be restored and are left out.
func (s *Store) Save(name string, snap session.Snapshot) (err error) {
	order, err := json.Marshal(snap.Sprites.Order)
	if err != nil {
		return errors.Wrap(err, "store: encoding order")
	}
	g, err := json.Marshal(snap.Grid)
	if err != nil {
		return errors.Wrap(err, "store: encoding grid")
	}
	a, err := json.Marshal(snap.Animation)
	if err != nil {
		return errors.Wrap(err, "store: encoding animation")
	}
	e, err := json.Marshal(snap.Export)
	if err != nil {
		return errors.Wrap(err, "store: encoding export")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "store: starting transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().Unix()
	var id int64
	switch err = tx.QueryRow("SELECT id FROM session WHERE name = ?", name).Scan(&id); err {
	case nil:
		if _, err = tx.Exec("UPDATE session SET saved = ?, sprite_order = ?, grid = ?, animation = ?, export = ? WHERE id = ?", now, string(order), string(g), string(a), string(e), id); err != nil {
			return errors.Wrapf(err, "store: updating %q", name)
		}
		if _, err = tx.Exec("DELETE FROM sprite WHERE session_id = ?", id); err != nil {
			return errors.Wrapf(err, "store: clearing sprites of %q", name)
		}
	case sql.ErrNoRows:
		var result sql.Result
		result, err = tx.Exec("INSERT INTO session (name, saved, sprite_order, grid, animation, export) VALUES (?, ?, ?, ?, ?, ?)", name, now, string(order), string(g), string(a), string(e))
		if err != nil {
			return errors.Wrapf(err, "store: inserting %q", name)
		}
		if id, err = result.LastInsertId(); err != nil {
			return errors.Wrap(err, "store: reading session id")
		}
	default:
		return errors.Wrapf(err, "store: looking up %q", name)
	}

	// Every sprite is kept, in order first and then the ones the order does
	// not mention, so that a later reorder can still bring them back.
	saved := 0
	for i, sp := range allSprites(snap.Sprites) {
		if len(sp.Source) == 0 {
			glog.Warningf("store: sprite %s (%s) has no source bytes; not saved", sp.ID, sp.Name)
			continue
		}
		if _, err = tx.Exec("INSERT INTO sprite (session_id, id, position, name, width, height, format, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", id, sp.ID, i, sp.Name, sp.Width, sp.Height, sp.Format, sp.Source); err != nil {
			return errors.Wrapf(err, "store: saving sprite %s", sp.ID)
		}
		saved++
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "store: committing")
	}
	glog.V(1).Infof("store: saved %q with %d sprites", name, saved)
	return nil
}

func allSprites(snap sprite.Snapshot) []*sprite.Sprite {
	out := snap.Ordered()
	seen := make(map[string]bool, len(out))
	for _, sp := range out {
		seen[sp.ID] = true
	}
	// Map iteration order is random; unordered leftovers go by id.
	var rest []string
	for id := range snap.Sprites {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		out = append(out, snap.Sprites[id])
	}
	return out
}

// decodeSprite re-derives one saved sprite.
var decodeSprite = sprite.LoadWithID

// Load re-derives the session saved under name. Sprites whose source no
// longer decodes are logged and dropped. On error the returned State is
// empty and no sprite handles are left held.
func (s *Store) Load(name string) (session.State, error) {
	var (
		st             session.State
		id             int64
		order, g, a, e string
	)
	switch err := s.db.QueryRow("SELECT id, sprite_order, grid, animation, export FROM session WHERE name = ?", name).Scan(&id, &order, &g, &a, &e); err {
	case nil:
	case sql.ErrNoRows:
		return session.State{}, ErrNotFound
	default:
		return session.State{}, errors.Wrapf(err, "store: loading %q", name)
	}

	for _, f := range []struct {
		what string
		data string
		v    interface{}
	}{
		{"order", order, &st.Order},
		{"grid", g, &st.Grid},
		{"animation", a, &st.Animation},
		{"export", e, &st.Export},
	} {
		if err := json.Unmarshal([]byte(f.data), f.v); err != nil {
			return session.State{}, errors.Wrapf(err, "store: decoding %s", f.what)
		}
	}

	sprites, err := s.loadSprites(id)
	if err != nil {
		return session.State{}, errors.Wrapf(err, "store: loading sprites of %q", name)
	}
	st.Sprites = sprites
	return st, nil
}

// loadSprites decodes the sprites of session id in saved order. If it fails
// partway, the sprites decoded so far are released.
func (s *Store) loadSprites(id int64) (out []*sprite.Sprite, err error) {
	defer func() {
		if err != nil {
			for _, sp := range out {
				sp.Release()
			}
			out = nil
		}
	}()

	rows, err := s.db.Query("SELECT id, name, width, height, source FROM sprite WHERE session_id = ? ORDER BY position", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			spriteID, spriteName string
			w, h                 int
			source               []byte
		)
		if err := rows.Scan(&spriteID, &spriteName, &w, &h, &source); err != nil {
			return out, errors.Wrap(err, "reading sprite")
		}
		sp, derr := decodeSprite(spriteID, spriteName, source)
		if derr != nil {
			glog.Errorf("store: dropping sprite %s: %v", spriteID, derr)
			continue
		}
		if sp.Width != w || sp.Height != h {
			glog.Warningf("store: sprite %s was saved as %dx%d, decodes as %dx%d", spriteID, w, h, sp.Width, sp.Height)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Info describes a saved session.
type Info struct {
	Name    string
	Sprites int
	Saved   time.Time
}

// List returns every saved session, most recently saved first.
func (s *Store) List() ([]Info, error) {
	rows, err := s.db.Query("SELECT s.name, s.saved, COUNT(p.id) FROM session AS s LEFT JOIN sprite AS p ON p.session_id = s.id GROUP BY s.id ORDER BY s.saved DESC, s.name")
	if err != nil {
		return nil, errors.Wrap(err, "store: listing sessions")
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			info  Info
			saved int64
		)
		if err := rows.Scan(&info.Name, &saved, &info.Sprites); err != nil {
			return nil, errors.Wrap(err, "store: reading session")
		}
		info.Saved = time.Unix(saved, 0)
		out = append(out, info)
	}
	return out, errors.Wrap(rows.Err(), "store: listing sessions")
}

// Delete removes the session saved under name.
func (s *Store) Delete(name string) error {
	result, err := s.db.Exec("DELETE FROM session WHERE name = ?", name)
	if err != nil {
		return errors.Wrapf(err, "store: deleting %q", name)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
