package store

// Schema notes:
//   - worlds.snapshot is the authoritative world state; the version, tick,
//     and liveness columns mirror snapshot fields so the scheduler can query
//     without unmarshalling every row.
//   - troopers keeps one row per (slot, generation) with is_current flagging
//     the occupant, so point-in-time roster queries never scan full history.
//   - deltas is append-only and pruned by count; bulletins by sequence.
const schema = `
CREATE TABLE IF NOT EXISTS worlds (
	player_id               TEXT PRIMARY KEY,
	state_version           INTEGER NOT NULL,
	last_tick_ms            INTEGER NOT NULL,
	session_active_until_ms INTEGER NOT NULL DEFAULT 0,
	snapshot                TEXT NOT NULL,
	updated_at_ms           INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS troopers (
	player_id     TEXT NOT NULL,
	slot_no       INTEGER NOT NULL,
	generation    INTEGER NOT NULL,
	name          TEXT NOT NULL,
	status        TEXT NOT NULL,
	body          TEXT NOT NULL,
	is_current    INTEGER NOT NULL DEFAULT 1,
	installed_day INTEGER NOT NULL,
	retired_day   INTEGER,
	PRIMARY KEY (player_id, slot_no, generation)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_troopers_current
	ON troopers (player_id, slot_no) WHERE is_current = 1;

CREATE TABLE IF NOT EXISTS replacement_orders (
	player_id    TEXT NOT NULL,
	slot_no      INTEGER NOT NULL,
	due_day      INTEGER NOT NULL,
	enqueued_day INTEGER NOT NULL,
	PRIMARY KEY (player_id, slot_no)
);

CREATE TABLE IF NOT EXISTS deltas (
	player_id    TEXT NOT NULL,
	to_version   INTEGER NOT NULL,
	from_version INTEGER NOT NULL,
	ts_ms        INTEGER NOT NULL,
	patches      TEXT NOT NULL,
	PRIMARY KEY (player_id, to_version)
);

CREATE TABLE IF NOT EXISTS bulletins (
	player_id TEXT NOT NULL,
	seq       INTEGER NOT NULL,
	day       INTEGER NOT NULL,
	kind      TEXT NOT NULL,
	text      TEXT NOT NULL,
	ts_ms     INTEGER NOT NULL,
	PRIMARY KEY (player_id, seq)
);
`
