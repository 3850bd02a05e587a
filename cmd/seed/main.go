package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/platform/config"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/platform/ids"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/platform/logging"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/store/mongo"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Env)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Connect to Mongo
	client, err := mongo.NewClient(cfg)
	if err != nil {
		log.Error("failed to connect to MongoDB", "err", err)
		return
	}
	defer client.Close(ctx)

	if err := mongo.EnsureIndexes(ctx, client.DB); err != nil {
		log.Error("failed to ensure indexes", "err", err)
		return
	}

	repo := mongo.NewInsuranceRepo(client.DB, 5*time.Second)

	log.Info("seeding insurances")
	seedInsurances(ctx, repo, log)
	log.Info("done seeding")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedInsurances(ctx context.Context, repo core.InsuranceRepo, log *slog.Logger) {
	insurances := []core.Insurance{
		{
			Slug:        "life-basic",
			Name:        "Basic Life",
			Description: "Entry-level life coverage with a fixed death benefit.",
			Prices: []core.InsurancePrice{
				{Frequency: core.FrequencyMonthly, Price: dec("100.00")},
				{Frequency: core.FrequencyQuarterly, Price: dec("290.00")},
				{Frequency: core.FrequencyYearly, Price: dec("1100.00")},
			},
			Coverages: []core.CoverageRelation{
				{CoverageID: ids.New(), Name: "Accidental Death", AdditionalCost: dec("10.00")},
			},
			Benefits: []core.BenefitRelation{
				{BenefitID: ids.New(), Name: "Funeral Assistance", AdditionalCost: dec("4.50")},
			},
		},
		{
			Slug:        "life-family",
			Name:        "Family Life",
			Description: "Coverage extending the death benefit to spouse and children.",
			Prices: []core.InsurancePrice{
				{Frequency: core.FrequencyMonthly, Price: dec("180.00")},
				{Frequency: core.FrequencyQuarterly, Price: dec("520.00")},
				{Frequency: core.FrequencyYearly, Price: dec("1980.00")},
			},
			Coverages: []core.CoverageRelation{
				{CoverageID: ids.New(), Name: "Accidental Death", AdditionalCost: dec("10.00")},
				{CoverageID: ids.New(), Name: "Total Disability", AdditionalCost: dec("15.00")},
			},
			Benefits: []core.BenefitRelation{
				{BenefitID: ids.New(), Name: "Funeral Assistance", AdditionalCost: dec("4.50")},
				{BenefitID: ids.New(), Name: "Medical Second Opinion", AdditionalCost: dec("6.00")},
			},
		},
		{
			Slug:        "life-premium",
			Name:        "Premium Life",
			Description: "High-benefit coverage with full rider catalog.",
			Prices: []core.InsurancePrice{
				{Frequency: core.FrequencyMonthly, Price: dec("320.00")},
				{Frequency: core.FrequencyQuarterly, Price: dec("930.00")},
				{Frequency: core.FrequencyYearly, Price: dec("3550.00")},
			},
			Coverages: []core.CoverageRelation{
				{CoverageID: ids.New(), Name: "Accidental Death", AdditionalCost: dec("10.00")},
				{CoverageID: ids.New(), Name: "Total Disability", AdditionalCost: dec("15.00")},
				{CoverageID: ids.New(), Name: "Critical Illness", AdditionalCost: dec("22.50")},
			},
			Benefits: []core.BenefitRelation{
				{BenefitID: ids.New(), Name: "Funeral Assistance", AdditionalCost: dec("4.50")},
				{BenefitID: ids.New(), Name: "Medical Second Opinion", AdditionalCost: dec("6.00")},
				{BenefitID: ids.New(), Name: "International Coverage", AdditionalCost: dec("12.00")},
			},
		},
	}

	for _, ins := range insurances {
		ins.ID = ids.New()
		if err := ins.Validate(); err != nil {
			log.Error("invalid seed insurance", "slug", ins.Slug, "err", err)
			continue
		}
		if err := repo.UpsertBySlug(ctx, ins); err != nil {
			log.Error("failed to seed insurance", "slug", ins.Slug, "err", err)
			continue
		}
		log.Info("seeded insurance", "slug", ins.Slug)
	}
}
