package rbr

import (
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/coriolab/seaconv/core/errors"
)

func createFixtureRSK(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deployment.rsk")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE channels (channelID INTEGER PRIMARY KEY, shortName TEXT, longName TEXT, units TEXT)`,
		`INSERT INTO channels VALUES (1, 'temp09', 'Temperature', 'Degrees_C')`,
		`INSERT INTO channels VALUES (2, 'cond05', 'Conductivity', 'mS/cm')`,
		`CREATE TABLE data (tstamp INTEGER, channel01 REAL, channel02 REAL)`,
		`INSERT INTO data VALUES (1672531200000, 8.5, 32.1)`,
		`INSERT INTO data VALUES (1672531260000, 8.6, NULL)`,
		`CREATE TABLE instruments (serialID TEXT, model TEXT)`,
		`INSERT INTO instruments VALUES ('208764', 'RBRconcerto')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture statement %q: %v", stmt, err)
		}
	}
	return path
}

func TestLoad(t *testing.T) {
	ds, err := (&Reader{path: createFixtureRSK(t)}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ds.Len())
	}
	vars := ds.Variables()
	if len(vars) != 2 || vars[0] != "temperature" || vars[1] != "conductivity" {
		t.Fatalf("Variables = %v", vars)
	}
	want := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if !ds.Times[0].Equal(want) {
		t.Errorf("Times[0] = %v, want %v", ds.Times[0], want)
	}
	temps, _ := ds.Values("temperature")
	if temps[0] != 8.5 || temps[1] != 8.6 {
		t.Errorf("temperature = %v", temps)
	}
	conds, _ := ds.Values("conductivity")
	if !math.IsNaN(conds[1]) {
		t.Errorf("NULL cell should load as NaN, got %v", conds[1])
	}
	if ds.Attrs["instrument_model"] != "RBRconcerto" {
		t.Errorf("instrument_model = %q", ds.Attrs["instrument_model"])
	}
	if ds.Attrs["instrument_serial"] != "208764" {
		t.Errorf("instrument_serial = %q", ds.Attrs["instrument_serial"])
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := (&Reader{path: filepath.Join(t.TempDir(), "nope.rsk")}).Load()
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestLoadNotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.rsk")
	if err := os.WriteFile(path, []byte("definitely not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := (&Reader{path: path}).Load()
	if !errors.Is(err, apperrors.ErrParse) {
		t.Fatalf("got %v, want ErrParse", err)
	}
}

func TestLoadDuplicateChannelNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.rsk")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stmts := []string{
		`CREATE TABLE channels (channelID INTEGER PRIMARY KEY, shortName TEXT, longName TEXT, units TEXT)`,
		`INSERT INTO channels VALUES (1, 'temp09', 'Temperature', 'C')`,
		`INSERT INTO channels VALUES (2, 'temp10', 'Temperature', 'C')`,
		`CREATE TABLE data (tstamp INTEGER, channel01 REAL, channel02 REAL)`,
		`INSERT INTO data VALUES (0, 1.0, 2.0)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	ds, err := (&Reader{path: path}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	vars := ds.Variables()
	if vars[0] != "temperature" || vars[1] != "temperature_2" {
		t.Errorf("Variables = %v, want suffixed duplicate", vars)
	}
}
