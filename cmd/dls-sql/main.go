// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dls-sql inspects the DLS design database.
package main // import "github.com/go-dls/dls/cmd/dls-sql"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-dls/dls/netdb"
	_ "github.com/go-sql-driver/mysql"
)

const (
	dbname = "dlssrv"
)

func main() {
	log.SetPrefix("dls-sql: ")
	log.SetFlags(0)

	var (
		name = flag.String("name", "", "design to display (empty lists the catalog)")
	)

	flag.Parse()

	db, err := netdb.Open(dbname)
	if err != nil {
		log.Fatalf("could not open DLS db: %+v", err)
	}
	defer db.Close()

	err = doQuery(db, *name)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(db *netdb.DB, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if name == "" {
		designs, err := db.Designs(ctx)
		if err != nil {
			return fmt.Errorf("could not list designs: %w", err)
		}
		for _, d := range designs {
			fmt.Printf("design id=%d name=%q rev=%d created=%q\n",
				d.ID, d.Name, d.Revision, d.Created,
			)
		}
		return nil
	}

	text, err := db.Design(ctx, name)
	if err != nil {
		return fmt.Errorf("could not retrieve design %q: %w", name, err)
	}
	fmt.Printf("%s", text)
	return nil
}
