package schema

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

type stubDiscoverer struct {
	tables        map[string][]string // schema name -> table names
	columns       map[string][]ColumnInfo
	columnErrs    map[string]error
	enums         map[string][]string
	samples       map[string][]map[string]any
	relationships map[string][]Relationship // schema name -> fk edges
	relErr        error
	listErr       error
	columnCalls   int
	listCalls     int
}

func (s *stubDiscoverer) ListTables(_ context.Context, schemaName string) ([]string, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.tables[schemaName], nil
}

func (s *stubDiscoverer) GetColumns(_ context.Context, tableName, schemaName string) ([]ColumnInfo, error) {
	s.columnCalls++
	key := schemaName + "." + tableName
	if err := s.columnErrs[key]; err != nil {
		return nil, err
	}
	return s.columns[key], nil
}

func (s *stubDiscoverer) GetEnumValues(_ context.Context, typeName string) ([]string, error) {
	return s.enums[typeName], nil
}

func (s *stubDiscoverer) GetSampleRows(_ context.Context, tableName, schemaName string, _ int) ([]map[string]any, error) {
	return s.samples[schemaName+"."+tableName], nil
}

func (s *stubDiscoverer) GetRelationships(_ context.Context, schemaName string) ([]Relationship, error) {
	if s.relErr != nil {
		return nil, s.relErr
	}
	return s.relationships[schemaName], nil
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestCache(discoverer *stubDiscoverer, clock *fakeClock, tables ...string) *Cache {
	return NewCache(discoverer, CacheConfig{
		TTL:           5 * time.Minute,
		AllowedTables: tables,
		Clock:         clock.Now,
	})
}

func TestGetSchemaCachesWithinTTL(t *testing.T) {
	discoverer := &stubDiscoverer{
		columns: map[string][]ColumnInfo{
			"public.users": {{Name: "id", DataType: "integer"}},
		},
	}
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	cache := newTestCache(discoverer, clock, "public.users")

	first := cache.GetSchema(context.Background())
	clock.Advance(time.Minute)
	second := cache.GetSchema(context.Background())

	if first != second {
		t.Fatal("expected identical snapshot within TTL")
	}
	if discoverer.columnCalls != 1 {
		t.Fatalf("column discovery calls = %d, want 1", discoverer.columnCalls)
	}
}

func TestGetSchemaRebuildsAfterTTL(t *testing.T) {
	discoverer := &stubDiscoverer{
		columns: map[string][]ColumnInfo{
			"public.users": {{Name: "id", DataType: "integer"}},
		},
	}
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	cache := newTestCache(discoverer, clock, "public.users")

	first := cache.GetSchema(context.Background())
	clock.Advance(6 * time.Minute)
	second := cache.GetSchema(context.Background())

	if first == second {
		t.Fatal("expected fresh snapshot after TTL expiry")
	}
	if discoverer.columnCalls != 2 {
		t.Fatalf("column discovery calls = %d, want 2", discoverer.columnCalls)
	}
}

func TestGetSchemaResolvesEnumColumns(t *testing.T) {
	discoverer := &stubDiscoverer{
		columns: map[string][]ColumnInfo{
			"public.users": {
				{Name: "status", DataType: "USER-DEFINED", UDTName: "user_status"},
				{Name: "name", DataType: "text", Nullable: true},
			},
		},
		enums: map[string][]string{
			"user_status": {"active", "inactive", "on_leave", "terminated"},
		},
	}
	clock := &fakeClock{now: time.Now()}
	cache := newTestCache(discoverer, clock, "public.users")

	snapshot := cache.GetSchema(context.Background())
	status := snapshot.Tables["public.users"].Columns["status"]
	if status.Type != "ENUM" {
		t.Fatalf("status.Type = %q, want ENUM", status.Type)
	}
	if len(status.EnumValues) != 4 {
		t.Fatalf("status.EnumValues = %v", status.EnumValues)
	}
}

func TestGetSchemaPerTableErrorDoesNotFailSnapshot(t *testing.T) {
	discoverer := &stubDiscoverer{
		columns: map[string][]ColumnInfo{
			"public.users": {{Name: "id", DataType: "integer"}},
		},
		columnErrs: map[string]error{
			"public.checklist": fmt.Errorf("relation does not exist"),
		},
	}
	clock := &fakeClock{now: time.Now()}
	cache := newTestCache(discoverer, clock, "public.users", "public.checklist")

	snapshot := cache.GetSchema(context.Background())
	if snapshot.Tables["public.checklist"].Err == "" {
		t.Fatal("expected error marker for failed table")
	}
	if snapshot.Tables["public.users"].Err != "" {
		t.Fatalf("users table unexpectedly failed: %s", snapshot.Tables["public.users"].Err)
	}
	if snapshot.AllFailed() {
		t.Fatal("AllFailed() should be false for a partial failure")
	}
}

func TestSnapshotAllFailed(t *testing.T) {
	discoverer := &stubDiscoverer{
		columnErrs: map[string]error{
			"public.users":     fmt.Errorf("boom"),
			"public.checklist": fmt.Errorf("boom"),
		},
	}
	clock := &fakeClock{now: time.Now()}
	cache := newTestCache(discoverer, clock, "public.users", "public.checklist")

	if !cache.GetSchema(context.Background()).AllFailed() {
		t.Fatal("AllFailed() should be true when every table errors")
	}
}

func TestGetSchemaRelationshipsFilteredToAllowlist(t *testing.T) {
	discoverer := &stubDiscoverer{
		columns: map[string][]ColumnInfo{
			"public.users":     {{Name: "id", DataType: "integer"}},
			"public.checklist": {{Name: "id", DataType: "integer"}},
		},
		relationships: map[string][]Relationship{
			"public": {
				{SourceTable: "checklist", SourceColumn: "user_id", TargetTable: "users", TargetColumn: "id"},
				{SourceTable: "audit_log", SourceColumn: "user_id", TargetTable: "users", TargetColumn: "id"},
			},
		},
	}
	clock := &fakeClock{now: time.Now()}
	cache := newTestCache(discoverer, clock, "public.users", "public.checklist")

	snapshot := cache.GetSchema(context.Background())
	if len(snapshot.Relationships) != 1 {
		t.Fatalf("Relationships = %v, want the audit_log edge filtered out", snapshot.Relationships)
	}
	rel := snapshot.Relationships[0]
	if rel.SourceTable != "checklist" || rel.TargetTable != "users" {
		t.Fatalf("relationship = %+v", rel)
	}
}

func TestGetSchemaRelationshipErrorDegrades(t *testing.T) {
	discoverer := &stubDiscoverer{
		columns: map[string][]ColumnInfo{
			"public.users": {{Name: "id", DataType: "integer"}},
		},
		relErr: fmt.Errorf("permission denied"),
	}
	clock := &fakeClock{now: time.Now()}
	cache := newTestCache(discoverer, clock, "public.users")

	snapshot := cache.GetSchema(context.Background())
	if len(snapshot.Relationships) != 0 {
		t.Fatalf("Relationships = %v, want empty on discovery failure", snapshot.Relationships)
	}
	if snapshot.Tables["public.users"].Err != "" {
		t.Fatal("relationship failure must not mark tables as failed")
	}
}

func TestAddAllowedTableUnknownTable(t *testing.T) {
	discoverer := &stubDiscoverer{
		tables: map[string][]string{"public": {"users"}},
	}
	clock := &fakeClock{now: time.Now()}
	cache := newTestCache(discoverer, clock, "public.users")

	if cache.AddAllowedTable(context.Background(), "public.ghost") {
		t.Fatal("AddAllowedTable() accepted a missing table")
	}
	allowed := cache.AllowedTables()
	if len(allowed) != 1 || allowed[0] != "public.users" {
		t.Fatalf("AllowedTables() = %v", allowed)
	}
}

func TestAddAllowedTableInvalidatesCache(t *testing.T) {
	discoverer := &stubDiscoverer{
		tables: map[string][]string{"public": {"users", "orders"}},
		columns: map[string][]ColumnInfo{
			"public.users":  {{Name: "id", DataType: "integer"}},
			"public.orders": {{Name: "id", DataType: "integer"}},
		},
	}
	clock := &fakeClock{now: time.Now()}
	cache := newTestCache(discoverer, clock, "public.users")

	cache.GetSchema(context.Background())
	if !cache.AddAllowedTable(context.Background(), "orders") {
		t.Fatal("AddAllowedTable() = false for an existing table")
	}

	snapshot := cache.GetSchema(context.Background())
	if _, ok := snapshot.Tables["public.orders"]; !ok {
		t.Fatalf("snapshot missing public.orders, tables = %v", snapshot.Tables)
	}
	if discoverer.columnCalls != 3 {
		t.Fatalf("column discovery calls = %d, want 3 (1 + 2 after invalidation)", discoverer.columnCalls)
	}
}

func TestRemoveAllowedTable(t *testing.T) {
	discoverer := &stubDiscoverer{
		columns: map[string][]ColumnInfo{
			"public.users": {{Name: "id", DataType: "integer"}},
		},
	}
	clock := &fakeClock{now: time.Now()}
	cache := newTestCache(discoverer, clock, "public.users", "public.checklist")

	if !cache.RemoveAllowedTable("checklist") {
		t.Fatal("RemoveAllowedTable() = false for an allowlisted table")
	}
	if cache.RemoveAllowedTable("public.checklist") {
		t.Fatal("RemoveAllowedTable() = true for an already removed table")
	}

	snapshot := cache.GetSchema(context.Background())
	if _, ok := snapshot.Tables["public.checklist"]; ok {
		t.Fatal("removed table still present in snapshot")
	}
}

func TestPromptContextRendering(t *testing.T) {
	snapshot := &Snapshot{
		Tables: map[string]Table{
			"public.users": {
				Columns: map[string]Column{
					"status": {Type: "ENUM", EnumValues: []string{"active", "inactive"}},
					"name":   {Type: "text", Nullable: true, Description: "display name"},
				},
			},
			"public.broken": {Err: "relation does not exist"},
		},
		Relationships: []Relationship{
			{SourceTable: "checklist", SourceColumn: "user_id", TargetTable: "users", TargetColumn: "id"},
		},
	}

	context := snapshot.PromptContext()
	if !strings.Contains(context, "Table: public.users") {
		t.Fatalf("missing table header:\n%s", context)
	}
	if !strings.Contains(context, "status: ENUM (values: active, inactive)") {
		t.Fatalf("missing enum column:\n%s", context)
	}
	if !strings.Contains(context, "name: text -- display name") {
		t.Fatalf("missing described column:\n%s", context)
	}
	if strings.Contains(context, "public.broken") {
		t.Fatalf("failed table should be omitted:\n%s", context)
	}
	if !strings.Contains(context, "Relationships:") {
		t.Fatalf("missing relationships block:\n%s", context)
	}
	if !strings.Contains(context, "checklist.user_id -> users.id") {
		t.Fatalf("missing relationship edge:\n%s", context)
	}
}
