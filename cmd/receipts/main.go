// Command receipts runs the batch receipt generator against the configured
// database and writes the archive to disk.
//
//	receipts -start 2024-02-01 -end 2024-02-07 [-donor <uuid>] [-batch <id>] [-out receipts.zip]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sangkips/foodbridge-api/internal/application/service"
	"github.com/sangkips/foodbridge-api/internal/config"
	"github.com/sangkips/foodbridge-api/internal/infrastructure/database"
	"github.com/sangkips/foodbridge-api/internal/infrastructure/logging"
	"github.com/sangkips/foodbridge-api/internal/infrastructure/repository"
	"github.com/sangkips/foodbridge-api/internal/metrics"
	"github.com/sangkips/foodbridge-api/pkg/events"
	log "github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run())
}

// run returns the exit code: 1 when the batch could not be produced, 2 when
// some receipts in it failed.
func run() int {
	var (
		start   = flag.String("start", "", "first day of the range (YYYY-MM-DD)")
		end     = flag.String("end", "", "last day of the range, inclusive (YYYY-MM-DD)")
		donor   = flag.String("donor", "", "only include orders of this donor id")
		batchID = flag.String("batch", "", "batch id (defaults to the current unix milliseconds)")
		out     = flag.String("out", "", "archive path (defaults to the generated file name)")
	)
	flag.Parse()

	cfg := config.Load()
	logCloser := logging.Setup(cfg.Log)
	defer logCloser.Close()

	db, err := database.Open(&cfg.Database, false)
	if err != nil {
		log.WithError(err).Error("failed to connect to database")
		return 1
	}
	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Error("failed to run migrations")
		return 1
	}

	publisher, err := events.NewPublisherFromConfig(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.WithError(err).Warn("events are disabled")
		publisher = events.NewNullPublisher()
	}
	defer publisher.Close()

	svc := service.NewReceiptService(
		repository.NewOrderRepository(db),
		repository.NewReceiptRepository(db),
		repository.NewBatchRunRepository(db),
		service.NewPDFRenderer(cfg.Receipt),
		publisher,
		nil,
		metrics.New(prometheus.NewRegistry()),
		cfg.Receipt,
	)
	// events go out before the publisher is closed
	defer svc.Flush()

	result, err := svc.GenerateBatch(context.Background(), service.BatchRequest{
		StartDate: *start,
		EndDate:   *end,
		DonorID:   *donor,
		BatchID:   *batchID,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "receipts:", err)
		return 1
	}

	path := *out
	if path == "" {
		path = result.Filename
	}
	if err := os.WriteFile(path, result.Archive, 0o644); err != nil {
		log.WithError(err).Error("failed to write archive")
		return 1
	}

	if err := printSummary(os.Stdout, result, path); err != nil {
		log.WithError(err).Warn("failed to print summary")
	}

	if result.Failed() > 0 {
		return 2
	}
	return 0
}

func printSummary(w io.Writer, result *service.BatchResult, path string) error {
	table := tablewriter.NewWriter(w)
	table.Header("Order", "Receipt", "Donor", "Servings", "Amount", "Status")
	for _, e := range result.Manifest.Entries {
		status := e.Status
		if e.Error != "" {
			status += ": " + e.Error
		}
		if err := table.Append([]string{
			e.OrderID,
			e.ReceiptNumber,
			e.Donor,
			fmt.Sprint(e.Servings),
			e.Amount.StringFixed(2),
			status,
		}); err != nil {
			return err
		}
	}
	table.Footer("", "", "", "Total", service.FormatAmount(result.Manifest.Currency, result.Manifest.TotalAmount), "")
	if err := table.Render(); err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	_, err = fmt.Fprintf(w, "batch %s: %d generated, %d failed, %d skipped -> %s\n",
		result.BatchID, result.Generated(), result.Failed(), result.Skipped(), abs)
	return err
}
