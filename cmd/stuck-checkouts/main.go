package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"headless-storefront/internal/config"
	"headless-storefront/internal/db"
	"headless-storefront/internal/domain"
	"headless-storefront/internal/logging"
	checkoutrepo "headless-storefront/internal/repository/checkout"
)

type stuckLister interface {
	ListStuck(ctx context.Context, state domain.CheckoutState, olderThan time.Time) ([]domain.CheckoutAttempt, error)
}

func main() {
	var (
		olderThan time.Duration
		asJSON    bool
	)
	flag.DurationVar(&olderThan, "older-than", 15*time.Minute, "Report attempts paid but not submitted for longer than this")
	flag.BoolVar(&asJSON, "json", false, "Print attempts as JSON lines")
	flag.Parse()

	if olderThan <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("stuck-checkouts", "info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New("stuck-checkouts", cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	n, err := report(ctx, checkoutrepo.NewPostgres(pool, logger), os.Stdout, time.Now().Add(-olderThan), asJSON)
	if err != nil {
		logger.Fatal().Err(err).Msg("list stuck checkouts")
	}
	if n > 0 {
		pool.Close()
		os.Exit(1)
	}
}

// report writes every attempt stuck in payment-confirmed since before cutoff
// and returns how many there were.
func report(ctx context.Context, repo stuckLister, w io.Writer, cutoff time.Time, asJSON bool) (int, error) {
	attempts, err := repo.ListStuck(ctx, domain.CheckoutPaymentConfirmed, cutoff)
	if err != nil {
		return 0, err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		for _, a := range attempts {
			if err := enc.Encode(a); err != nil {
				return 0, err
			}
		}
		return len(attempts), nil
	}

	if len(attempts) == 0 {
		fmt.Fprintln(w, "No stuck checkouts.")
		return 0, nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAYMENT INTENT\tCART\tAMOUNT\tCOUPON\tSTUCK SINCE")
	for _, a := range attempts {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\n",
			a.PaymentIntentID,
			a.CartID,
			domain.AmountFromMinor(a.AmountMinor).Decimal().StringFixed(2),
			a.Currency,
			a.DiscountCode,
			a.UpdatedAt.UTC().Format(time.RFC3339),
		)
	}
	if err := tw.Flush(); err != nil {
		return 0, err
	}
	fmt.Fprintf(w, "%d stuck checkout(s) need reconciliation\n", len(attempts))
	return len(attempts), nil
}
