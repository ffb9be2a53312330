package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/linebid/linebid/internal/cycle"
	"github.com/linebid/linebid/internal/models"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newImportCmd() *cobra.Command {
	var (
		configPath string
		periodID   uint
		operation  string
	)

	cmd := &cobra.Command{
		Use:   "import <lines.csv>",
		Short: "Import bid lines and their schedule templates from CSV",
		Long: `Imports bid lines from a CSV file. The first column is the line number;
the remaining columns are one shift code per template day, with an empty
cell marking an off day. The number of day columns must match the
configured cycle length. Shift codes must already exist.

Example:
  line_number,day_1,day_2,...,day_56
  101,D1,D1,D1,D1,D1,,,...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, configPath, args[0], periodID, operation)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "linebid.yaml", "path to Linebid config file")
	cmd.Flags().UintVar(&periodID, "period", 0, "bid period ID the schedules belong to")
	cmd.Flags().StringVar(&operation, "operation", "", "operation name the lines belong to")
	cmd.MarkFlagRequired("period")
	cmd.MarkFlagRequired("operation")
	return cmd
}

// lineRow is one parsed CSV row: a line number plus its day template.
type lineRow struct {
	LineNumber int
	Days       []models.ScheduleDay
}

// parseTemplateCSV reads the import file. Day columns become 1-based
// template days; blank cells are off days.
func parseTemplateCSV(r io.Reader, cycleLength int) ([]lineRow, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("import: read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("import: file has no data rows")
	}

	header := records[0]
	if len(header) != cycleLength+1 {
		return nil, fmt.Errorf("import: expected %d day columns, got %d", cycleLength, len(header)-1)
	}

	var rows []lineRow
	for i, record := range records[1:] {
		lineNumber, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("import: row %d: bad line number %q", i+2, record[0])
		}

		days := make([]models.ScheduleDay, 0, cycleLength)
		for d, cell := range record[1:] {
			day := models.ScheduleDay{DayIndex: d + 1}
			if code := strings.TrimSpace(cell); code != "" {
				c := code
				day.ShiftCodeID = &c
			}
			days = append(days, day)
		}
		if err := cycle.ValidateTemplate(days, cycleLength); err != nil {
			return nil, fmt.Errorf("import: row %d (line %d): %w", i+2, lineNumber, err)
		}
		rows = append(rows, lineRow{LineNumber: lineNumber, Days: days})
	}
	return rows, nil
}

func runImport(cmd *cobra.Command, configPath, path string, periodID uint, operation string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("import: open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := parseTemplateCSV(f, cfg.CycleLength)
	if err != nil {
		return err
	}

	var period models.BidPeriod
	if err := gormDB.First(&period, periodID).Error; err != nil {
		return fmt.Errorf("import: load period %d: %w", periodID, err)
	}

	var op models.Operation
	if err := gormDB.Where(models.Operation{Name: operation}).FirstOrCreate(&op).Error; err != nil {
		return fmt.Errorf("import: operation %q: %w", operation, err)
	}

	out := cmd.OutOrStdout()
	created := 0
	for _, row := range rows {
		err := gormDB.Transaction(func(tx *gorm.DB) error {
			var existing models.BidLine
			err := tx.Where("line_number = ? AND operation_id = ?", row.LineNumber, op.ID).
				First(&existing).Error
			if err == nil {
				fmt.Fprintf(out, "  Line %d already exists, skipping\n", row.LineNumber)
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			sched := models.Schedule{
				BidPeriodID: period.ID,
				Name:        fmt.Sprintf("%s line %d", op.Name, row.LineNumber),
			}
			if err := tx.Create(&sched).Error; err != nil {
				return fmt.Errorf("create schedule: %w", err)
			}
			for _, day := range row.Days {
				day.ScheduleID = sched.ID
				if err := tx.Create(&day).Error; err != nil {
					return fmt.Errorf("create day %d: %w", day.DayIndex, err)
				}
			}

			line := models.BidLine{
				LineNumber:  row.LineNumber,
				OperationID: op.ID,
				Status:      models.StatusAvailable,
				ScheduleID:  &sched.ID,
			}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("create line: %w", err)
			}
			created++
			return nil
		})
		if err != nil {
			return fmt.Errorf("import: line %d: %w", row.LineNumber, err)
		}
	}

	fmt.Fprintf(out, "Imported %d of %d lines into %s (period %d)\n",
		created, len(rows), op.Name, period.ID)
	return nil
}
