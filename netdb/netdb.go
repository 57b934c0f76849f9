// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package netdb holds types to describe the design database for the
// DLS simulator: named, revisioned netlist designs.
package netdb // import "github.com/go-dls/dls/netdb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to retrieve netlist designs from
// the DLS design database.
type DB struct {
	db   *sql.DB
	name string // name of the DLS database
}

// Open opens a connection to the design database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("netdb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		return nil, fmt.Errorf("netdb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("netdb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// DesignInfo describes one stored design revision.
type DesignInfo struct {
	ID       uint32 `json:"identifier"`
	Name     string `json:"name"`
	Revision uint32 `json:"revision"`
	Created  string `json:"datetime"`
}

// LastDesign returns the netlist text of the most recently stored
// design.
func (db *DB) LastDesign(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	netlist := ""
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT netlist FROM designs ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return netlist, fmt.Errorf("netdb: could not query last design: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&netlist)
		if err != nil {
			return netlist, fmt.Errorf("netdb: could not get last design value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return netlist, fmt.Errorf("netdb: could not scan db for last design: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return netlist, fmt.Errorf("netdb: context error while retrieving last design: %w", err)
	}

	return netlist, nil
}

// Design returns the netlist text of the latest revision of the
// named design.
func (db *DB) Design(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	netlist := ""
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT netlist FROM designs WHERE name=? ORDER BY revision DESC LIMIT 1",
		name,
	)
	if err != nil {
		return netlist, fmt.Errorf("netdb: could not query design %q: %w", name, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		err = rows.Scan(&netlist)
		if err != nil {
			return netlist, fmt.Errorf("netdb: could not get design %q value: %w", name, err)
		}
		n++
	}

	if err := rows.Err(); err != nil {
		return netlist, fmt.Errorf("netdb: could not scan db for design %q: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return netlist, fmt.Errorf("netdb: context error while retrieving design %q: %w", name, err)
	}

	if n == 0 {
		return netlist, fmt.Errorf("netdb: no design %q in db %q", name, db.name)
	}

	return netlist, nil
}

// Designs returns the catalog of stored design revisions.
func (db *DB) Designs(ctx context.Context) ([]DesignInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cat []DesignInfo
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT identifier, name, revision, datetime FROM designs",
	)
	if err != nil {
		return cat, fmt.Errorf("netdb: could not run designs query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d DesignInfo
		err = rows.Scan(&d.ID, &d.Name, &d.Revision, &d.Created)
		if err != nil {
			return cat, fmt.Errorf("netdb: could not scan designs: %w", err)
		}
		cat = append(cat, d)
	}

	if err := rows.Err(); err != nil {
		return cat, fmt.Errorf("netdb: could not scan db for designs: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return cat, fmt.Errorf("netdb: context error while retrieving designs: %w", err)
	}

	return cat, nil
}
