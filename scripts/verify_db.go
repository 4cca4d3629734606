package main

import (
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/wwwzy/PantryAgent/internal/storage"
	"gorm.io/gorm"
)

func main() {
	path := "pantryagent.db"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// Connect to the database
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	fmt.Println("--- Verifying PantryAgent Database ---")

	// Verify InventoryItems
	var itemCount int64
	if !db.Migrator().HasTable(&storage.InventoryItem{}) {
		fmt.Println("Table 'inventory_items' does not exist yet.")
	} else {
		db.Model(&storage.InventoryItem{}).Count(&itemCount)
		fmt.Printf("Total Inventory Items: %d\n", itemCount)

		if itemCount > 0 {
			var items []storage.InventoryItem
			db.Order("updated_at desc").Limit(5).Find(&items)
			fmt.Println("Latest 5 Updates (Local Time):")
			for _, it := range items {
				fmt.Printf("  [%s] %s = %s\n",
					it.UpdatedAt.Local().Format("2006-01-02 15:04:05"), it.Name, it.Status)
			}
		}
	}

	fmt.Println("\n------------------------------------")

	// Verify AuditRecords
	var auditCount int64
	if !db.Migrator().HasTable(&storage.AuditRecord{}) {
		fmt.Println("Table 'audit_records' does not exist yet.")
	} else {
		db.Model(&storage.AuditRecord{}).Count(&auditCount)
		fmt.Printf("Total Audit Records: %d\n", auditCount)

		if auditCount > 0 {
			var recs []storage.AuditRecord
			db.Order("created_at desc").Limit(5).Find(&recs)
			fmt.Println("Latest 5 Actions (Local Time):")
			for _, r := range recs {
				params := r.ParamsJSON
				if len(params) > 50 {
					params = params[:47] + "..."
				}
				kind := ""
				if r.ErrorKind != "" {
					kind = " (" + r.ErrorKind + ")"
				}
				fmt.Printf("  [%s] %s %s%s %s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Action, r.Status, kind, params)
			}
		}
	}
}
