package cppdex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hward/cppdex/internal/config"
	"github.com/hward/cppdex/internal/ident"
)

const geoHeader = `#pragma once

namespace geo {

/// Drawing color.
enum class Color {
  Red,
  Green = 5,
};

/// Abstract shape base.
class Shape {
 public:
  virtual ~Shape();
  /// Computes the surface area.
  virtual double area() const = 0;
};

using ShapePtr = Shape*;

class Circle : public Shape {
 public:
  Circle(double radius);
  double area() const override;
 private:
  double radius_;
};

/// Fixed-size value container.
template <typename T>
class Box {
 public:
  const T& get() const;
  void put(const T& value);
 private:
  T value_;
};

/// Computes the area of a w-by-h rectangle.
int area(int w, int h);

}  // namespace geo
`

const geoSource = `#include "geo.hpp"

namespace geo {

Shape::~Shape() {}

Circle::Circle(double radius) : radius_(radius) {}

double Circle::area() const { return 3.14159 * radius_ * radius_; }

int area(int w, int h) { return w * h; }

namespace {
void invisible() {}
}

static int helper(int x) { return x; }

}  // namespace geo
`

func writeFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "geo.hpp"), []byte(geoHeader), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "geo.cpp"), []byte(geoSource), 0o644))
	return root
}

func runEngine(t *testing.T, root string) (*Engine, *Stats) {
	t.Helper()
	engine := New(config.Default(root))
	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	return engine, stats
}

func TestEngine_Run_EndToEnd(t *testing.T) {
	t.Parallel()
	engine, stats := runEngine(t, writeFixture(t))

	assert.Equal(t, 2, stats.Units)
	assert.Equal(t, 0, stats.Failed)

	q := engine.Query()

	ns, ok := q.NamespaceNamed("geo")
	require.True(t, ok)
	assert.NotEmpty(t, ns.Records)
	assert.NotEmpty(t, ns.Enums)
	assert.NotEmpty(t, ns.Aliases)

	circle, ok := q.RecordNamed("geo::Circle")
	require.True(t, ok)
	assert.Equal(t, "class Circle : public Shape", circle.Proto)
	// The base reference resolves to the indexed Shape record.
	require.Len(t, circle.BaseRecords, 1)
	assert.Equal(t, ident.ID("geo::Shape"), circle.BaseRecords[0].ID)

	color, ok := q.EnumNamed("geo::Color")
	require.True(t, ok)
	assert.Equal(t, "enum class", color.EnumKind)
	require.Len(t, color.Members, 2)
	assert.Equal(t, int64(5), color.Members[1].Value)
	assert.Contains(t, color.BriefDoc, "Drawing color")

	ptr, ok := q.AliasNamed("geo::ShapePtr")
	require.True(t, ok)
	assert.Equal(t, ident.ID("geo::Shape"), ptr.Target.ID)
}

func TestEngine_Run_HeaderAndSourceObservationsMerge(t *testing.T) {
	t.Parallel()
	engine, _ := runEngine(t, writeFixture(t))

	// Declared in the header, defined in the source: one entry.
	overloads := engine.Query().FunctionsNamed("geo::area")
	require.Len(t, overloads, 1)
	assert.Equal(t, "int area(int w, int h)", overloads[0].Proto)
	assert.Contains(t, overloads[0].BriefDoc, "rectangle")

	methods := engine.Query().FunctionsNamed("geo::Circle::area")
	require.Len(t, methods, 1)
	assert.True(t, methods[0].IsRecordMember)
	assert.True(t, methods[0].IsConst)
}

func TestEngine_Run_RecordMembersLinked(t *testing.T) {
	t.Parallel()
	engine, _ := runEngine(t, writeFixture(t))
	q := engine.Query()

	circle, ok := q.RecordNamed("geo::Circle")
	require.True(t, ok)
	methods := q.Methods(circle)
	names := make([]string, 0, len(methods))
	for _, m := range methods {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "Circle")
	assert.Contains(t, names, "area")
}

func TestEngine_Run_TemplateParamsSubstitutedInMethods(t *testing.T) {
	t.Parallel()
	engine, _ := runEngine(t, writeFixture(t))
	q := engine.Query()

	box, ok := q.RecordNamed("geo::Box")
	require.True(t, ok)
	require.Len(t, box.TemplateParams, 1)
	assert.Equal(t, "T", box.TemplateParams[0].Name)

	get := q.FunctionsNamed("geo::Box::get")
	require.Len(t, get, 1)
	assert.Equal(t, "const T& get() const", get[0].Proto)

	put := q.FunctionsNamed("geo::Box::put")
	require.Len(t, put, 1)
	assert.Equal(t, "void put(const T& value)", put[0].Proto)
}

func TestEngine_Run_InternalDeclarationsExcluded(t *testing.T) {
	t.Parallel()
	engine, _ := runEngine(t, writeFixture(t))
	q := engine.Query()

	assert.Empty(t, q.FunctionsNamed("geo::invisible"), "anonymous namespace content")
	assert.Empty(t, q.FunctionsNamed("geo::helper"), "static free function")
}

func TestEngine_Run_IgnorePrivateMembers(t *testing.T) {
	t.Parallel()
	root := writeFixture(t)
	cfg := config.Default(root)
	cfg.IgnorePrivateMembers = true
	engine := New(cfg)
	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	circle, ok := engine.Query().RecordNamed("geo::Circle")
	require.True(t, ok)
	assert.Empty(t, circle.Vars, "private data members suppressed")
}

func TestEngine_Run_MalformedUnitIsSkippedNotFatal(t *testing.T) {
	t.Parallel()
	root := writeFixture(t)
	// tree-sitter recovers from almost anything; an unreadable entry in a
	// compilation database is the reliable per-unit failure.
	ccPath := filepath.Join(root, "compile_commands.json")
	require.NoError(t, os.WriteFile(ccPath, []byte(`[
  {"directory": "`+root+`", "file": "geo.cpp", "command": "c++ -c geo.cpp"},
  {"directory": "`+root+`", "file": "missing.cpp", "command": "c++ -c missing.cpp"}
]`), 0o644))

	cfg := config.Default(root)
	cfg.CompileCommands = ccPath
	engine := New(cfg)
	stats, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Units)
	assert.Equal(t, 1, stats.Failed)
	assert.NotEmpty(t, engine.Query().FunctionsNamed("geo::area"))
}

func TestEngine_Run_MissingCompilationDatabaseIsFatal(t *testing.T) {
	t.Parallel()
	cfg := config.Default(t.TempDir())
	cfg.CompileCommands = filepath.Join(cfg.RootDir, "absent.json")
	_, err := New(cfg).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to read compilation database")
}

func TestEngine_Run_LimitCapsUnits(t *testing.T) {
	t.Parallel()
	root := writeFixture(t)
	engine := New(config.Default(root), WithLimit(1), WithJobs(1))
	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Units)
}

func TestEngine_Export(t *testing.T) {
	t.Parallel()
	engine, _ := runEngine(t, writeFixture(t))

	dbPath := filepath.Join(t.TempDir(), "index.db")
	require.NoError(t, engine.Export(dbPath))

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestStats_String(t *testing.T) {
	t.Parallel()
	_, stats := runEngine(t, writeFixture(t))

	s := stats.String()
	assert.Contains(t, s, "translation units")
	assert.Contains(t, s, "functions:")
	assert.Contains(t, s, "namespaces:")
}
