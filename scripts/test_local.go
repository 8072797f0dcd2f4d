//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"tax-credit-engine/internal/config"
	"tax-credit-engine/internal/models"
	"tax-credit-engine/internal/services/assessor"
	"tax-credit-engine/internal/services/cache"
	"tax-credit-engine/internal/services/credit"
	"tax-credit-engine/internal/services/tax"
	"tax-credit-engine/internal/utils"
)

func main() {
	fmt.Println("=== Tax & Credit Engine - Local Test ===")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	_ = utils.InitLogger("warn")
	defer utils.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("📖 Parsing sample CSV...")
	csvContent, err := os.ReadFile("data/sample_taxpayers.csv")
	if err != nil {
		fmt.Printf("❌ Failed to read CSV: %v\n", err)
		os.Exit(1)
	}

	profiles, parseErrs := utils.NewCSVParser().ParseProfiles(string(csvContent), "test-batch-001")
	for _, e := range parseErrs {
		fmt.Printf("⚠️  %v\n", e)
	}
	fmt.Printf("✅ Parsed %d profiles from CSV\n", len(profiles))
	fmt.Println()

	store := cache.Open(ctx, cfg.RedisAddr, cfg.RedisPassword)
	defer store.Close()
	comparisons := cache.NewComparisons(tax.NewEngine(cfg.DeductionRules()), store, cfg.CacheTTL)

	fmt.Println("🧮 Comparing regimes...")
	result, err := assessor.NewService(comparisons, nil).AssessBatch(ctx, "test-batch-001", profiles)
	if err != nil {
		fmt.Printf("❌ Batch failed: %v\n", err)
		os.Exit(1)
	}

	for _, a := range result.Assessments {
		fmt.Printf("   %s  old ₹%.2f | new ₹%.2f  → %s saves ₹%.2f\n",
			a.TaxpayerID, a.OldTotal, a.NewTotal, a.Recommended, a.Savings)
	}
	for _, e := range result.Errors {
		fmt.Printf("   ⚠️  %s\n", e)
	}
	fmt.Println()
	fmt.Printf("📊 Assessed %d/%d | old: %d | new: %d | total savings ₹%.2f\n",
		result.Summary.Assessed, result.Summary.TotalProfiles,
		result.Summary.RecommendOld, result.Summary.RecommendNew, result.Summary.TotalSavings)
	fmt.Println()

	fmt.Println("💳 Scoring a sample credit profile...")
	score, err := credit.EstimateFromProfile(models.CreditProfile{
		OnTimePaymentPct:     90,
		CreditUtilizationPct: 40,
		CreditAgeYears:       5,
		AccountTypes:         2,
		RecentInquiries:      1,
	})
	if err != nil {
		fmt.Printf("❌ Scoring failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("   Score %d (%s)\n", score.Score, score.Grade)

	projected, err := credit.Simulate(score.Score, models.ScenarioInputs{CreditUtilizationPct: 25})
	if err != nil {
		fmt.Printf("❌ Simulation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("   Paying utilization down to 25%%: %d (%+d)\n", projected.ProjectedScore, projected.TotalImpact)

	fmt.Println()
	fmt.Println("=== Local test complete! ===")
}
