// Command import_items loads an exchange-item catalog from an Excel
// workbook. Expected columns per row: issuer id, name, description,
// medal cost, total stock, daily limit, user limit, starts at, ends at
// (timestamps in RFC 3339).
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: import_items <catalog.xlsx>")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	f, err := excelize.OpenFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	totalImported := 0

	for _, sheetName := range f.GetSheetList() {
		fmt.Printf("Importing sheet: %s\n", sheetName)
		rows, err := f.GetRows(sheetName)
		if err != nil {
			fmt.Printf("Error reading sheet %s: %v\n", sheetName, err)
			continue
		}

		for i, row := range rows {
			if i == 0 || len(row) < 9 { // Skip header or incomplete rows
				continue
			}

			item, err := parseItemRow(row)
			if err != nil {
				fmt.Printf("Skipping row %d: %v\n", i+1, err)
				continue
			}

			if err := db.Create(item).Error; err != nil {
				fmt.Printf("Failed to import row %d: %v\n", i+1, err)
				continue
			}
			totalImported++
		}
	}

	fmt.Printf("Imported %d exchange items\n", totalImported)
}

func parseItemRow(row []string) (*models.ExchangeItem, error) {
	issuerID, err := strconv.ParseUint(row[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer id %q", row[0])
	}
	medalCost, err := strconv.ParseInt(row[3], 10, 64)
	if err != nil || medalCost <= 0 {
		return nil, fmt.Errorf("invalid medal cost %q", row[3])
	}
	totalStock, err := strconv.Atoi(row[4])
	if err != nil || totalStock < 0 {
		return nil, fmt.Errorf("invalid total stock %q", row[4])
	}
	dailyLimit, _ := strconv.Atoi(row[5])
	userLimit, _ := strconv.Atoi(row[6])
	startsAt, err := time.Parse(time.RFC3339, row[7])
	if err != nil {
		return nil, fmt.Errorf("invalid starts_at %q", row[7])
	}
	endsAt, err := time.Parse(time.RFC3339, row[8])
	if err != nil {
		return nil, fmt.Errorf("invalid ends_at %q", row[8])
	}

	return &models.ExchangeItem{
		IssuerID:     uint(issuerID),
		Name:         row[1],
		Description:  row[2],
		MedalCost:    medalCost,
		TotalStock:   totalStock,
		CurrentStock: totalStock,
		DailyLimit:   dailyLimit,
		UserLimit:    userLimit,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		IsActive:     true,
	}, nil
}
