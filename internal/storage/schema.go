package storage

// Schema DDL. Tables are created on open when missing.
const (
	createMeta = `CREATE TABLE IF NOT EXISTS meta (
    meta_key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createUnits = `CREATE TABLE IF NOT EXISTS units (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    unit_id TEXT NOT NULL UNIQUE,
    external_id TEXT NOT NULL,
    x REAL NOT NULL,
    y REAL NOT NULL,
    z REAL NOT NULL,
    length REAL NOT NULL,
    width REAL NOT NULL,
    height REAL NOT NULL,
    weight REAL NOT NULL,
    rotated INTEGER NOT NULL DEFAULT 0,
    force_placed INTEGER NOT NULL DEFAULT 0,
    removed INTEGER NOT NULL DEFAULT 0
);`

	createPallets = `CREATE TABLE IF NOT EXISTS pallets (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    pallet_id TEXT NOT NULL UNIQUE,
    pallet_key TEXT NOT NULL UNIQUE,
    label TEXT NOT NULL,
    length REAL NOT NULL,
    width REAL NOT NULL,
    height REAL NOT NULL,
    created_at TEXT NOT NULL
);`

	createPalletContents = `CREATE TABLE IF NOT EXISTS pallet_contents (
    pallet_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    product_id TEXT NOT NULL,
    label TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    priority INTEGER NOT NULL,
    length REAL NOT NULL,
    width REAL NOT NULL,
    height REAL NOT NULL,
    weight REAL NOT NULL,
    PRIMARY KEY (pallet_id, position),
    FOREIGN KEY (pallet_id) REFERENCES pallets(pallet_id)
);`
)

var schema = []string{createMeta, createUnits, createPallets, createPalletContents}

const (
	metaContainer = "container"
	metaVersion   = "version"
)
