package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"tabprep/domain/datareadiness/ingestion"
)

// ShoppingGeneratorConfig configures the synthetic customer table generator
type ShoppingGeneratorConfig struct {
	CustomerCount int     `json:"customer_count"`
	MissingRate   float64 `json:"missing_rate"`   // chance that a nullable cell is missing
	DuplicateRate float64 `json:"duplicate_rate"` // chance that a row repeats an earlier row
	OutlierRate   float64 `json:"outlier_rate"`   // chance that an age is implausible
	Seed          int64   `json:"seed"`
}

// DefaultShoppingConfig returns sensible defaults for customer data generation
func DefaultShoppingConfig() ShoppingGeneratorConfig {
	return ShoppingGeneratorConfig{
		CustomerCount: 200,
		MissingRate:   0.05,
		DuplicateRate: 0.03,
		OutlierRate:   0.02,
		Seed:          42,
	}
}

// ShoppingDataGenerator generates customer records with controlled defects
type ShoppingDataGenerator struct {
	config ShoppingGeneratorConfig
	rng    *rand.Rand
}

// NewShoppingDataGenerator creates a new generator
func NewShoppingDataGenerator(config ShoppingGeneratorConfig) *ShoppingDataGenerator {
	return &ShoppingDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

var regions = []string{"north", "south", "east", "west"}

// Generate builds a recordset with the sample user schema plus a region field
func (g *ShoppingDataGenerator) Generate() ingestion.Recordset {
	records := make([]ingestion.Record, 0, g.config.CustomerCount)

	for i := 0; i < g.config.CustomerCount; i++ {
		if len(records) > 0 && g.rng.Float64() < g.config.DuplicateRate {
			records = append(records, records[g.rng.Intn(len(records))])
			continue
		}

		id := int64(i + 1)
		age := ingestion.NewIntegerValue(int64(18 + g.rng.Intn(60)))
		if g.rng.Float64() < g.config.OutlierRate {
			age = ingestion.NewIntegerValue(int64(110 + g.rng.Intn(40)))
		}
		if g.rng.Float64() < g.config.MissingRate {
			age = ingestion.NewMissingValue()
		}

		email := ingestion.NewTextValue(fmt.Sprintf("customer%d@example.com", id))
		if g.rng.Float64() < g.config.MissingRate {
			email = ingestion.NewMissingValue()
		}

		// Log-normal spend, rounded to cents
		spend := math.Round(math.Exp(4+g.rng.NormFloat64()*0.6)*100) / 100

		records = append(records, ingestion.MustRecord(
			ingestion.NewField(FieldUserID, ingestion.NewIntegerValue(id)),
			ingestion.NewField(FieldName, ingestion.NewTextValue(fmt.Sprintf("Customer %d", id))),
			ingestion.NewField(FieldEmail, email),
			ingestion.NewField(FieldAge, age),
			ingestion.NewField(FieldPurchase, ingestion.NewFloatValue(spend)),
			ingestion.NewField("region", ingestion.NewTextValue(regions[g.rng.Intn(len(regions))])),
		))
	}

	return ingestion.NewRecordset(records...)
}
