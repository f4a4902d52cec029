package mysql

// Note: `key` and `value` are reserved; keep them quoted everywhere.
const getSQL = "SELECT `value` FROM kv_store WHERE `key` = ?"

// Use VALUES(col) for broad compatibility.
const upsertSQL = "INSERT INTO kv_store (`key`, `value`) VALUES (?, ?)\n" +
	"ON DUPLICATE KEY UPDATE\n" +
	"  `value`    = VALUES(`value`),\n" +
	"  updated_at = CURRENT_TIMESTAMP\n"

const deleteSQL = "DELETE FROM kv_store WHERE `key` = ?"
