package config_test

import (
	"fmt"

	"github.com/ajitpratap0/creditrisk/pkg/config"
)

// ExampleNewDefaultConfig shows the defaults of a run
func ExampleNewDefaultConfig() {
	cfg := config.NewDefaultConfig()

	fmt.Printf("Primary: %s\n", cfg.Input.Primary)
	fmt.Printf("Steps: %d\n", len(cfg.Features.Steps))
	fmt.Printf("First step: %s\n", cfg.Features.Steps[0])
	fmt.Printf("Card window: %d\n", cfg.Features.CreditCardWindow)

	// Output:
	// Primary: application_train.csv
	// Steps: 18
	// First step: organization_type
	// Card window: 12
}

// ExampleConfig_Validate shows how invalid settings are reported
func ExampleConfig_Validate() {
	cfg := config.NewDefaultConfig()
	cfg.Imputation.Fraction = 1.5

	if err := cfg.Validate(); err != nil {
		fmt.Println("invalid")
	}

	cfg.Imputation.Fraction = 0.2
	if err := cfg.Validate(); err == nil {
		fmt.Println("valid")
	}

	// Output:
	// invalid
	// valid
}
