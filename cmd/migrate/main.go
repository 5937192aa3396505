package main

import (
	"flag"
	"fmt"
	"log"

	"signpost/internal/platform/config"
	"signpost/internal/platform/database"
)

func main() {
	target := flag.String("target", "global", "Migration target: global, tenant, or all-tenants")
	workspaceID := flag.String("workspace", "", "Workspace ID (required for target=tenant)")
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	globalDB, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatalf("Failed to connect to global DB: %v", err)
	}
	defer globalDB.Close()

	pool := database.NewTenantDBPool(cfg.Database.Tenant)
	defer pool.CloseAll()

	switch *target {
	case "global":
		if err := database.InitGlobalSchema(globalDB); err != nil {
			log.Fatalf("Failed to apply global schema: %v", err)
		}

	case "tenant":
		if *workspaceID == "" {
			log.Fatal("--workspace flag required for tenant migrations")
		}

		var dbFilePath string
		err := globalDB.QueryRow("SELECT db_file_path FROM workspaces WHERE id = ?", *workspaceID).Scan(&dbFilePath)
		if err != nil {
			log.Fatalf("Failed to get workspace DB path: %v", err)
		}

		db, err := pool.Get(*workspaceID, dbFilePath)
		if err != nil {
			log.Fatalf("Failed to connect to tenant DB: %v", err)
		}
		if err := database.InitTenantSchema(db); err != nil {
			log.Fatalf("Failed to apply tenant schema: %v", err)
		}

	case "all-tenants":
		rows, err := globalDB.Query("SELECT id, db_file_path FROM workspaces")
		if err != nil {
			log.Fatalf("Failed to list workspaces: %v", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id, dbFilePath string
			if err := rows.Scan(&id, &dbFilePath); err != nil {
				log.Fatalf("Failed to scan workspace row: %v", err)
			}

			db, err := pool.Get(id, dbFilePath)
			if err != nil {
				log.Printf("Skipping workspace %s: %v", id, err)
				continue
			}
			if err := database.InitTenantSchema(db); err != nil {
				log.Fatalf("Failed to apply tenant schema for %s: %v", id, err)
			}
			log.Printf("Migrated workspace %s", id)
		}

	default:
		log.Fatal("Invalid target: must be 'global', 'tenant', or 'all-tenants'")
	}

	fmt.Println("Migration completed successfully")
}
