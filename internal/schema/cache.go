package schema

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/askdb/askdb/internal/observability"
)

const (
	defaultTTL        = 5 * time.Minute
	defaultSampleRows = 3
)

// CacheConfig configures a Cache. AllowedTables entries may be bare table
// names; they are normalized to "schema.table" form on construction.
type CacheConfig struct {
	TTL           time.Duration
	SampleRows    int
	AllowedTables []string
	Logger        *slog.Logger
	Clock         func() time.Time
}

// Cache owns the table allowlist and the TTL-guarded schema snapshot. One
// mutex covers allowlist mutation, cache invalidation and the
// read-and-maybe-rebuild path, so a rebuild never observes a half-mutated
// allowlist and two concurrent readers never race on the snapshot swap.
type Cache struct {
	discoverer Discoverer
	ttl        time.Duration
	sampleRows int
	logger     *slog.Logger
	clock      func() time.Time

	mu        sync.Mutex
	allowed   map[string]struct{}
	snapshot  *Snapshot
	fetchedAt time.Time // zero value means the cache is invalid
}

func NewCache(discoverer Discoverer, cfg CacheConfig) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.SampleRows <= 0 {
		cfg.SampleRows = defaultSampleRows
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedTables))
	for _, name := range cfg.AllowedTables {
		allowed[NormalizeTableName(name)] = struct{}{}
	}

	return &Cache{
		discoverer: discoverer,
		ttl:        cfg.TTL,
		sampleRows: cfg.SampleRows,
		logger:     cfg.Logger,
		clock:      cfg.Clock,
		allowed:    allowed,
	}
}

// GetSchema returns the cached snapshot while it is younger than the TTL,
// otherwise rebuilds synchronously under the lock and returns the fresh
// snapshot. Per-table discovery failures degrade the snapshot instead of
// failing the call.
func (c *Cache) GetSchema(ctx context.Context) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && !c.fetchedAt.IsZero() && c.clock().Sub(c.fetchedAt) < c.ttl {
		observability.ObserveSchemaCacheHit()
		return c.snapshot
	}

	snapshot := c.discover(ctx)
	c.snapshot = snapshot
	c.fetchedAt = c.clock()
	observability.ObserveSchemaCacheRebuild()
	return snapshot
}

// AddAllowedTable verifies the table exists in the live database, then adds
// it to the allowlist and invalidates the cache so the next GetSchema
// rebuilds. Returns false, leaving state untouched, when the table cannot be
// found.
func (c *Cache) AddAllowedTable(ctx context.Context, name string) bool {
	qualified := NormalizeTableName(name)
	schemaName, tableName := splitQualified(qualified)

	existing, err := c.discoverer.ListTables(ctx, schemaName)
	if err != nil {
		c.logger.WarnContext(ctx, "table existence check failed",
			slog.String("table", qualified), slog.Any("error", err))
		return false
	}
	if !slices.Contains(existing, tableName) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.allowed[qualified] = struct{}{}
	c.fetchedAt = time.Time{}
	return true
}

// RemoveAllowedTable removes the table from the allowlist and invalidates
// the cache. Returns false when the table was not allowlisted.
func (c *Cache) RemoveAllowedTable(name string) bool {
	qualified := NormalizeTableName(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.allowed[qualified]; !ok {
		return false
	}
	delete(c.allowed, qualified)
	c.fetchedAt = time.Time{}
	return true
}

// AllowedTables returns the current allowlist in sorted order.
func (c *Cache) AllowedTables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.allowed))
	for name := range c.allowed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// discover rebuilds the snapshot for every allowlisted table. Callers must
// hold c.mu.
func (c *Cache) discover(ctx context.Context) *Snapshot {
	tables := make(map[string]Table, len(c.allowed))

	for qualified := range c.allowed {
		schemaName, tableName := splitQualified(qualified)

		cols, err := c.discoverer.GetColumns(ctx, tableName, schemaName)
		if err != nil {
			c.logger.WarnContext(ctx, "table discovery failed",
				slog.String("table", qualified), slog.Any("error", err))
			tables[qualified] = Table{Err: err.Error(), Columns: map[string]Column{}}
			continue
		}

		columns := make(map[string]Column, len(cols))
		for _, col := range cols {
			column := Column{
				Type:        col.DataType,
				Nullable:    col.Nullable,
				Default:     col.Default,
				Description: col.Description,
			}
			if col.DataType == "USER-DEFINED" {
				values, err := c.discoverer.GetEnumValues(ctx, col.UDTName)
				if err == nil && len(values) > 0 {
					column.Type = "ENUM"
					column.EnumValues = values
				}
			}
			columns[col.Name] = column
		}

		// Sample rows are best-effort context for the generator.
		samples, err := c.discoverer.GetSampleRows(ctx, tableName, schemaName, c.sampleRows)
		if err != nil {
			samples = nil
		}

		tables[qualified] = Table{Columns: columns, SampleRows: samples}
	}

	return &Snapshot{
		Tables:        tables,
		Relationships: c.discoverRelationships(ctx),
		CreatedAt:     c.clock(),
	}
}

// discoverRelationships collects foreign key edges whose source and target
// are both allowlisted. Failures degrade to an empty list; join hints are
// context, not correctness. Callers must hold c.mu.
func (c *Cache) discoverRelationships(ctx context.Context) []Relationship {
	schemaNames := make(map[string]struct{})
	for qualified := range c.allowed {
		schemaName, _ := splitQualified(qualified)
		schemaNames[schemaName] = struct{}{}
	}

	relationships := make([]Relationship, 0)
	for schemaName := range schemaNames {
		edges, err := c.discoverer.GetRelationships(ctx, schemaName)
		if err != nil {
			c.logger.WarnContext(ctx, "relationship discovery failed",
				slog.String("schema", schemaName), slog.Any("error", err))
			continue
		}
		for _, edge := range edges {
			if _, ok := c.allowed[schemaName+"."+edge.SourceTable]; !ok {
				continue
			}
			if _, ok := c.allowed[schemaName+"."+edge.TargetTable]; !ok {
				continue
			}
			relationships = append(relationships, edge)
		}
	}

	sort.Slice(relationships, func(i, j int) bool {
		a, b := relationships[i], relationships[j]
		if a.SourceTable != b.SourceTable {
			return a.SourceTable < b.SourceTable
		}
		if a.SourceColumn != b.SourceColumn {
			return a.SourceColumn < b.SourceColumn
		}
		return a.TargetTable < b.TargetTable
	})
	return relationships
}
