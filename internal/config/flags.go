package config

import "github.com/spf13/pflag"

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"max-connections":   "pool.max_conns",
	"min-connections":   "pool.min_conns",
	"acquire-timeout":   "pool.acquire_timeout",
	"page-size":         "ui.page_size",
	"resync-interval":   "ui.resync_interval",
	"debounce-interval": "ui.debounce_interval",
	"watch":             "ui.watch",
	"log-file":          "log.file",
	"log-level":         "log.level",
	"file":              "sqlite.path",
	"busy-timeout":      "sqlite.busy_timeout",
	"host":              "server.host",
	"port":              "server.port",
	"user":              "server.user",
	"password":          "server.password",
}

// BindGlobalFlags registers the flags shared by every backend.
func BindGlobalFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String("config", "", "config file (default: ./termisql.yaml)")
	fs.IntP("max-connections", "C", d.Pool.MaxConns, "maximum number of pooled connections")
	fs.IntP("min-connections", "c", d.Pool.MinConns, "number of connections opened up front")
	fs.Duration("acquire-timeout", d.Pool.AcquireTimeout, "how long a refresh waits for a pooled connection")
	fs.IntP("page-size", "s", d.UI.PageSize, "rows per page (1-255)")
	fs.Duration("resync-interval", d.UI.ResyncInterval, "how often everything is reloaded")
	fs.Duration("debounce-interval", d.UI.DebounceInterval, "how often pending refreshes and redraws are flushed")
	fs.String("log-file", d.Log.File, "append logs to this file")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
}

// BindSQLiteFlags registers the flags of the sqlite subcommand.
func BindSQLiteFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.StringP("file", "f", "", "path to the SQLite database file")
	fs.Int("busy-timeout", d.SQLite.BusyTimeout, "SQLite busy timeout in milliseconds")
	fs.Bool("watch", d.UI.Watch, "reload as soon as the database file changes")
}

// BindServerFlags registers the flags of the server subcommands.
func BindServerFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.StringP("user", "u", "", "user name (default: root for mysql, postgres for postgres)")
	fs.StringP("password", "p", "", "password")
	fs.StringP("host", "H", d.Server.Host, "server host")
	fs.IntP("port", "P", 0, "server port (default: 3306 for mysql, 5432 for postgres)")
}
