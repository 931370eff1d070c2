package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xykpool/internal/amm"
	"xykpool/internal/config"
)

// quoteResult is the stdout payload of the quote subcommand. Spot prices are
// 1e18-scaled and reflect the post-swap reserves.
type quoteResult struct {
	AmountIn        string `json:"amount_in"`
	AmountOut       string `json:"amount_out"`
	ReserveInAfter  string `json:"reserve_in_after"`
	ReserveOutAfter string `json:"reserve_out_after"`
	SpotPriceIn     string `json:"spot_price_in"`
	SpotPriceOut    string `json:"spot_price_out"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	amountIn, err := parseQuoteAmount("amount-in", cfg.AmountIn)
	if err != nil {
		return err
	}
	reserveIn, err := parseQuoteAmount("reserve-in", cfg.ReserveIn)
	if err != nil {
		return err
	}
	reserveOut, err := parseQuoteAmount("reserve-out", cfg.ReserveOut)
	if err != nil {
		return err
	}

	amountOut, err := amm.GetAmountOut(amountIn, reserveIn, reserveOut)
	if err != nil {
		return err
	}

	reserveInAfter := new(big.Int).Add(reserveIn, amountIn)
	reserveOutAfter := new(big.Int).Sub(reserveOut, amountOut)

	spotIn, err := amm.SpotPrice(reserveInAfter, reserveOutAfter)
	if err != nil {
		return err
	}
	spotOut, err := amm.SpotPrice(reserveOutAfter, reserveInAfter)
	if err != nil {
		return err
	}

	logger.Debug("quote",
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amountOut.String()),
	)

	result := quoteResult{
		AmountIn:        amountIn.String(),
		AmountOut:       amountOut.String(),
		ReserveInAfter:  reserveInAfter.String(),
		ReserveOutAfter: reserveOutAfter.String(),
		SpotPriceIn:     spotIn.String(),
		SpotPriceOut:    spotOut.String(),
	}

	encoder := json.NewEncoder(os.Stdout)
	return encoder.Encode(result)
}

func parseQuoteAmount(name, value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q", name, value)
	}
	return parsed, nil
}
