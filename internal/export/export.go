// Package export persists a resolved index to a SQLite database. The
// schema is write-once per run: the CLI creates the file, streams every
// symbol table in one transaction, and closes it. Consumers (site
// generators, search tooling) read it; nothing in the engine reads it back.
package export

import (
	"database/sql"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hward/cppdex/internal/sym"
)

// Store is the SQLite data access layer for the exported index.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS functions (
  id              TEXT PRIMARY KEY,
  name            TEXT NOT NULL,
  qualified_name  TEXT NOT NULL,
  file            TEXT NOT NULL,
  line            INTEGER,
  col             INTEGER,
  proto           TEXT NOT NULL,
  post_template   INTEGER,
  name_start      INTEGER,
  access          TEXT,
  parent_id       TEXT,
  brief_doc       TEXT,
  doc             TEXT,
  return_type_id  TEXT,
  return_type     TEXT,
  is_member       BOOLEAN,
  is_ctor_or_dtor BOOLEAN,
  ref_qualifier   TEXT
);

CREATE TABLE IF NOT EXISTS function_params (
  function_id     TEXT NOT NULL REFERENCES functions(id),
  ord             INTEGER NOT NULL,
  name            TEXT,
  type_id         TEXT,
  type            TEXT,
  default_value   TEXT,
  PRIMARY KEY (function_id, ord)
);

CREATE TABLE IF NOT EXISTS records (
  id              TEXT PRIMARY KEY,
  name            TEXT NOT NULL,
  qualified_name  TEXT NOT NULL,
  file            TEXT NOT NULL,
  line            INTEGER,
  col             INTEGER,
  proto           TEXT NOT NULL,
  kind            TEXT NOT NULL,
  access          TEXT,
  parent_id       TEXT,
  brief_doc       TEXT,
  doc             TEXT
);

CREATE TABLE IF NOT EXISTS record_bases (
  record_id       TEXT NOT NULL REFERENCES records(id),
  ord             INTEGER NOT NULL,
  base_id         TEXT,
  name            TEXT NOT NULL,
  access          TEXT,
  PRIMARY KEY (record_id, ord)
);

CREATE TABLE IF NOT EXISTS record_vars (
  record_id       TEXT NOT NULL REFERENCES records(id),
  ord             INTEGER NOT NULL,
  name            TEXT NOT NULL,
  type_id         TEXT,
  type            TEXT,
  default_value   TEXT,
  access          TEXT,
  is_static       BOOLEAN,
  doc             TEXT,
  PRIMARY KEY (record_id, ord)
);

CREATE TABLE IF NOT EXISTS record_members (
  record_id       TEXT NOT NULL REFERENCES records(id),
  ord             INTEGER NOT NULL,
  member_id       TEXT NOT NULL,
  member_kind     TEXT NOT NULL, -- "method" or "alias"
  PRIMARY KEY (record_id, member_kind, ord)
);

CREATE TABLE IF NOT EXISTS enums (
  id              TEXT PRIMARY KEY,
  name            TEXT NOT NULL,
  qualified_name  TEXT NOT NULL,
  file            TEXT NOT NULL,
  line            INTEGER,
  col             INTEGER,
  proto           TEXT NOT NULL,
  kind            TEXT NOT NULL,
  access          TEXT,
  parent_id       TEXT,
  brief_doc       TEXT,
  doc             TEXT
);

CREATE TABLE IF NOT EXISTS enum_members (
  enum_id         TEXT NOT NULL REFERENCES enums(id),
  ord             INTEGER NOT NULL,
  name            TEXT NOT NULL,
  value           INTEGER,
  doc             TEXT,
  PRIMARY KEY (enum_id, ord)
);

CREATE TABLE IF NOT EXISTS namespaces (
  id              TEXT PRIMARY KEY,
  name            TEXT NOT NULL,
  qualified_name  TEXT NOT NULL,
  file            TEXT NOT NULL,
  line            INTEGER,
  col             INTEGER,
  parent_id       TEXT,
  brief_doc       TEXT,
  doc             TEXT
);

CREATE TABLE IF NOT EXISTS namespace_children (
  namespace_id    TEXT NOT NULL REFERENCES namespaces(id),
  ord             INTEGER NOT NULL,
  child_id        TEXT NOT NULL,
  child_kind      TEXT NOT NULL, -- "record", "enum", "namespace", "alias"
  PRIMARY KEY (namespace_id, child_kind, ord)
);

CREATE TABLE IF NOT EXISTS aliases (
  id              TEXT PRIMARY KEY,
  name            TEXT NOT NULL,
  qualified_name  TEXT NOT NULL,
  file            TEXT NOT NULL,
  line            INTEGER,
  col             INTEGER,
  proto           TEXT NOT NULL,
  access          TEXT,
  parent_id       TEXT,
  target_id       TEXT,
  target          TEXT,
  is_member       BOOLEAN,
  brief_doc       TEXT,
  doc             TEXT
);

CREATE INDEX IF NOT EXISTS idx_functions_qualified ON functions(qualified_name);
CREATE INDEX IF NOT EXISTS idx_records_qualified   ON records(qualified_name);
CREATE INDEX IF NOT EXISTS idx_enums_qualified     ON enums(qualified_name);
CREATE INDEX IF NOT EXISTS idx_aliases_qualified   ON aliases(qualified_name);
`

// optID renders a SymbolID as a nullable column value: NULL for "no
// target" rather than the zero hex string.
func optID(id sym.SymbolID) any {
	if id.IsZero() {
		return nil
	}
	return id.String()
}

// sortedIDs returns the database's keys in ascending order so repeated
// exports of the same index are byte-identical.
func sortedIDs[T any](d *sym.Database[T]) []sym.SymbolID {
	ids := d.IDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Write streams the whole index in one transaction.
func (s *Store) Write(idx *sym.Index) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("export: begin: %w", err)
	}
	defer tx.Rollback()

	if err := writeFunctions(tx, idx); err != nil {
		return err
	}
	if err := writeRecords(tx, idx); err != nil {
		return err
	}
	if err := writeEnums(tx, idx); err != nil {
		return err
	}
	if err := writeNamespaces(tx, idx); err != nil {
		return err
	}
	if err := writeAliases(tx, idx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: commit: %w", err)
	}
	return nil
}

func writeFunctions(tx *sql.Tx, idx *sym.Index) error {
	ins, err := tx.Prepare(`INSERT INTO functions
		(id, name, qualified_name, file, line, col, proto, post_template, name_start,
		 access, parent_id, brief_doc, doc, return_type_id, return_type,
		 is_member, is_ctor_or_dtor, ref_qualifier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare functions: %w", err)
	}
	defer ins.Close()
	insParam, err := tx.Prepare(`INSERT INTO function_params
		(function_id, ord, name, type_id, type, default_value)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare function_params: %w", err)
	}
	defer insParam.Close()

	for _, id := range sortedIDs(idx.Functions) {
		f, ok := idx.Functions.Get(id)
		if !ok {
			continue
		}
		_, err := ins.Exec(id.String(), f.Name, f.QualifiedName, f.File, f.Line, f.Col,
			f.Proto, f.PostTemplate, f.NameStart, f.Access.String(), optID(f.ParentNamespaceID),
			f.BriefDoc, f.Doc, optID(f.ReturnType.ID), f.ReturnType.Name,
			f.IsRecordMember, f.IsCtorOrDtor, f.RefQualifier)
		if err != nil {
			return fmt.Errorf("export: function %q: %w", f.QualifiedName, err)
		}
		for i, p := range f.Params {
			if _, err := insParam.Exec(id.String(), i, p.Name, optID(p.Type.ID), p.Type.Name, p.DefaultValue); err != nil {
				return fmt.Errorf("export: function %q param %d: %w", f.QualifiedName, i, err)
			}
		}
	}
	return nil
}

func writeRecords(tx *sql.Tx, idx *sym.Index) error {
	ins, err := tx.Prepare(`INSERT INTO records
		(id, name, qualified_name, file, line, col, proto, kind, access, parent_id, brief_doc, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare records: %w", err)
	}
	defer ins.Close()
	insBase, err := tx.Prepare(`INSERT INTO record_bases (record_id, ord, base_id, name, access) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare record_bases: %w", err)
	}
	defer insBase.Close()
	insVar, err := tx.Prepare(`INSERT INTO record_vars
		(record_id, ord, name, type_id, type, default_value, access, is_static, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare record_vars: %w", err)
	}
	defer insVar.Close()
	insMember, err := tx.Prepare(`INSERT INTO record_members (record_id, ord, member_id, member_kind) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare record_members: %w", err)
	}
	defer insMember.Close()

	for _, id := range sortedIDs(idx.Records) {
		r, ok := idx.Records.Get(id)
		if !ok {
			continue
		}
		_, err := ins.Exec(id.String(), r.Name, r.QualifiedName, r.File, r.Line, r.Col,
			r.Proto, r.RecordKind, r.Access.String(), optID(r.ParentNamespaceID), r.BriefDoc, r.Doc)
		if err != nil {
			return fmt.Errorf("export: record %q: %w", r.QualifiedName, err)
		}
		for i, b := range r.BaseRecords {
			if _, err := insBase.Exec(id.String(), i, optID(b.ID), b.Name, b.Access.String()); err != nil {
				return fmt.Errorf("export: record %q base %d: %w", r.QualifiedName, i, err)
			}
		}
		for i, v := range r.Vars {
			if _, err := insVar.Exec(id.String(), i, v.Name, optID(v.Type.ID), v.Type.Name,
				v.DefaultValue, v.Access.String(), v.IsStatic, v.Doc); err != nil {
				return fmt.Errorf("export: record %q var %q: %w", r.QualifiedName, v.Name, err)
			}
		}
		for i, mid := range r.MethodIDs {
			if _, err := insMember.Exec(id.String(), i, mid.String(), "method"); err != nil {
				return fmt.Errorf("export: record %q method %d: %w", r.QualifiedName, i, err)
			}
		}
		for i, aid := range r.AliasIDs {
			if _, err := insMember.Exec(id.String(), i, aid.String(), "alias"); err != nil {
				return fmt.Errorf("export: record %q alias %d: %w", r.QualifiedName, i, err)
			}
		}
	}
	return nil
}

func writeEnums(tx *sql.Tx, idx *sym.Index) error {
	ins, err := tx.Prepare(`INSERT INTO enums
		(id, name, qualified_name, file, line, col, proto, kind, access, parent_id, brief_doc, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare enums: %w", err)
	}
	defer ins.Close()
	insMember, err := tx.Prepare(`INSERT INTO enum_members (enum_id, ord, name, value, doc) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare enum_members: %w", err)
	}
	defer insMember.Close()

	for _, id := range sortedIDs(idx.Enums) {
		e, ok := idx.Enums.Get(id)
		if !ok {
			continue
		}
		_, err := ins.Exec(id.String(), e.Name, e.QualifiedName, e.File, e.Line, e.Col,
			e.Proto, e.EnumKind, e.Access.String(), optID(e.ParentNamespaceID), e.BriefDoc, e.Doc)
		if err != nil {
			return fmt.Errorf("export: enum %q: %w", e.QualifiedName, err)
		}
		for i, m := range e.Members {
			if _, err := insMember.Exec(id.String(), i, m.Name, m.Value, m.Doc); err != nil {
				return fmt.Errorf("export: enum %q member %q: %w", e.QualifiedName, m.Name, err)
			}
		}
	}
	return nil
}

func writeNamespaces(tx *sql.Tx, idx *sym.Index) error {
	ins, err := tx.Prepare(`INSERT INTO namespaces
		(id, name, qualified_name, file, line, col, parent_id, brief_doc, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare namespaces: %w", err)
	}
	defer ins.Close()
	insChild, err := tx.Prepare(`INSERT INTO namespace_children (namespace_id, ord, child_id, child_kind) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare namespace_children: %w", err)
	}
	defer insChild.Close()

	for _, id := range sortedIDs(idx.Namespaces) {
		n, ok := idx.Namespaces.Get(id)
		if !ok {
			continue
		}
		_, err := ins.Exec(id.String(), n.Name, n.QualifiedName, n.File, n.Line, n.Col,
			optID(n.ParentNamespaceID), n.BriefDoc, n.Doc)
		if err != nil {
			return fmt.Errorf("export: namespace %q: %w", n.QualifiedName, err)
		}
		children := []struct {
			kind string
			ids  []sym.SymbolID
		}{
			{"record", n.Records},
			{"enum", n.Enums},
			{"namespace", n.Namespaces},
			{"alias", n.Aliases},
		}
		for _, group := range children {
			for i, cid := range group.ids {
				if _, err := insChild.Exec(id.String(), i, cid.String(), group.kind); err != nil {
					return fmt.Errorf("export: namespace %q child %d: %w", n.QualifiedName, i, err)
				}
			}
		}
	}
	return nil
}

func writeAliases(tx *sql.Tx, idx *sym.Index) error {
	ins, err := tx.Prepare(`INSERT INTO aliases
		(id, name, qualified_name, file, line, col, proto, access, parent_id,
		 target_id, target, is_member, brief_doc, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare aliases: %w", err)
	}
	defer ins.Close()

	for _, id := range sortedIDs(idx.Aliases) {
		a, ok := idx.Aliases.Get(id)
		if !ok {
			continue
		}
		_, err := ins.Exec(id.String(), a.Name, a.QualifiedName, a.File, a.Line, a.Col,
			a.Proto, a.Access.String(), optID(a.ParentNamespaceID),
			optID(a.Target.ID), a.Target.Name, a.IsRecordMember, a.BriefDoc, a.Doc)
		if err != nil {
			return fmt.Errorf("export: alias %q: %w", a.QualifiedName, err)
		}
	}
	return nil
}
