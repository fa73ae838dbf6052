package calc

import (
	"context"
	"encoding/json"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"precisioncalc/src/connectors"
	"precisioncalc/src/healing"
	"precisioncalc/src/model"
	"precisioncalc/src/precision"
	"precisioncalc/src/rates"
	"precisioncalc/src/service"
)

// Calc runs one calculation through the full pipeline and prints the outcome
// as indented JSON.
type Calc struct {
	Log *logger.Entry
}

func (c *Calc) Start(operation, operand1, operand2, from, to string) error {
	registry := healing.NewRegistry()
	if err := registry.Seed(); err != nil {
		return err
	}

	currencies := model.MustSeedCurrencySet()
	aggregator := rates.NewAggregator(currencies, connectors.DefaultProviders()...)
	svc := service.NewCalculationService(
		precision.NewEngineFromEnv(),
		aggregator,
		healing.NewOrchestrator(registry),
		currencies,
	)

	c.Log.WithFields(logger.Fields{
		"operation": operation,
		"operand1":  operand1,
		"operand2":  operand2,
	}).Info("Running calculation")

	outcome := svc.Calculate(context.Background(), service.Request{
		Operation:    operation,
		Operand1:     operand1,
		Operand2:     operand2,
		CurrencyFrom: from,
		CurrencyTo:   to,
	})

	out, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	return nil
}
