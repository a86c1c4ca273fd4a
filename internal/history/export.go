package history

import (
	"errors"
	"fmt"

	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/internal/parquet"
)

// ExecuteHistoryExport writes every stored run and coefficient row to Parquet files
// named <outputFile>.runs.parquet and <outputFile>.coefficients.parquet.
func ExecuteHistoryExport(store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total coefficient records: %d\n", status.TableSizes[coefficientsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	coefficients, err := store.GetAllCoefficients()
	if err != nil {
		return fmt.Errorf("failed to retrieve coefficients: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	parquetCoefficients := parquet.ConvertCoefficientRecords(coefficients)

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	coefficientsFile := outputFile + ".coefficients.parquet"
	if err := parquet.WriteCoefficientsParquet(parquetCoefficients, coefficientsFile); err != nil {
		return fmt.Errorf("failed to write coefficients: %w", err)
	}
	fmt.Printf("Exported %d coefficient records to: %s\n", len(parquetCoefficients), coefficientsFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - R (via arrow)")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
