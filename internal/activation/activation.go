// Package activation decides whether the RealtyPress schema may be served.
//
// Two preconditions must hold: the database must look like a WordPress
// install, and RealtyPress must be present in it. The result is computed
// once per process and handed to schema construction.
package activation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"

	"realtypress-graphql/internal/dbexec"
	"realtypress-graphql/internal/sqlutil"
)

const (
	// HostMissingFormat is reported when the WordPress options table is absent.
	HostMissingFormat = "RealtyPress GraphQL requires a WordPress database: table %s was not found."
	// PluginMissingMessage is reported when RealtyPress cannot be detected.
	PluginMissingMessage = "RealtyPress GraphQL couldn't detect RealtyPress. Please activate either RealtyPress Premium or RealtyPress Lite."
)

// Plugin detection sources, reported in Status.PluginSource.
const (
	SourceDeclaredVersion = "declared_version"
	SourceActivePlugins   = "active_plugins"
	SourcePropertyTable   = "property_table"
)

// Config controls detection.
type Config struct {
	TablePrefix   string
	RequireHost   bool
	PluginVersion string
	PluginSlugs   []string
}

// Status is the outcome of detection.
type Status struct {
	Enabled       bool
	HostPresent   bool
	PluginPresent bool
	PluginSource  string
	Reason        string
}

// Detector runs the preconditions at most once.
type Detector struct {
	executor dbexec.QueryExecutor
	cfg      Config

	once   sync.Once
	status Status
	err    error
}

// NewDetector creates a detector over executor.
func NewDetector(executor dbexec.QueryExecutor, cfg Config) *Detector {
	return &Detector{executor: executor, cfg: cfg}
}

// Detect returns the memoized activation status, probing on first use.
func (d *Detector) Detect(ctx context.Context) (Status, error) {
	d.once.Do(func() {
		d.status, d.err = d.detect(ctx)
	})
	return d.status, d.err
}

func (d *Detector) detect(ctx context.Context) (Status, error) {
	var st Status

	optionsTable := d.cfg.TablePrefix + "options"
	if d.cfg.RequireHost {
		ok, err := d.tableExists(ctx, optionsTable)
		if err != nil {
			return Status{}, fmt.Errorf("host detection failed: %w", err)
		}
		st.HostPresent = ok
	} else {
		st.HostPresent = true
	}
	if !st.HostPresent {
		st.Reason = fmt.Sprintf(HostMissingFormat, optionsTable)
		return st, nil
	}

	source, err := d.detectPlugin(ctx, optionsTable)
	if err != nil {
		return Status{}, fmt.Errorf("plugin detection failed: %w", err)
	}
	if source == "" {
		st.Reason = PluginMissingMessage
		return st, nil
	}
	st.PluginPresent = true
	st.PluginSource = source
	st.Enabled = true
	return st, nil
}

func (d *Detector) detectPlugin(ctx context.Context, optionsTable string) (string, error) {
	if strings.TrimSpace(d.cfg.PluginVersion) != "" {
		return SourceDeclaredVersion, nil
	}
	if d.cfg.RequireHost && len(d.cfg.PluginSlugs) > 0 {
		active, err := d.activePlugins(ctx, optionsTable)
		if err != nil {
			return "", err
		}
		for _, slug := range d.cfg.PluginSlugs {
			// active_plugins is a PHP-serialized list of "slug/file.php" entries.
			if slug != "" && strings.Contains(active, `"`+slug+`/`) {
				return SourceActivePlugins, nil
			}
		}
	}
	ok, err := d.tableExists(ctx, d.cfg.TablePrefix+"rps_property")
	if err != nil {
		return "", err
	}
	if ok {
		return SourcePropertyTable, nil
	}
	return "", nil
}

func (d *Detector) tableExists(ctx context.Context, table string) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("information_schema.TABLES").
		Where(sq.And{
			sq.Expr("TABLE_SCHEMA = DATABASE()"),
			sq.Eq{"TABLE_NAME": table},
		}).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return false, err
	}
	var count int64
	found, err := d.queryOne(ctx, query, args, &count)
	if err != nil || !found {
		return false, err
	}
	return count > 0, nil
}

func (d *Detector) activePlugins(ctx context.Context, optionsTable string) (string, error) {
	query, args, err := sq.Select(sqlutil.QuoteIdentifier("option_value")).
		From(sqlutil.QuoteIdentifier(optionsTable)).
		Where(sq.Eq{sqlutil.QuoteIdentifier("option_name"): "active_plugins"}).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return "", err
	}
	var value sql.NullString
	if _, err := d.queryOne(ctx, query, args, &value); err != nil {
		return "", err
	}
	return value.String, nil
}

func (d *Detector) queryOne(ctx context.Context, query string, args []interface{}, dest any) (bool, error) {
	if d.executor == nil {
		return false, errors.New("no query executor configured")
	}
	rows, err := d.executor.QueryContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.Scan(dest); err != nil {
		return false, err
	}
	return true, rows.Err()
}
