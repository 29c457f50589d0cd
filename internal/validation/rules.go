// Package validation registers the custom binding tags used by request DTOs.
package validation

import (
	"fmt"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Register installs the rules on gin's validator engine.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return RegisterRules(v)
}

func RegisterRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"wo_category":      inList(model.WorkOrderCategories),
		"wo_urgency":       inList(model.WorkOrderUrgencies),
		"asset_category":   inList(model.AssetCategories),
		"asset_condition":  inList(model.AssetConditions),
		"expense_category": inList(model.ExpenseCategories),
		"supply_priority":  inList(model.SupplyPriorities),
		"user_role":        isRole,
		"clock":            layout("15:04"),
		"date":             layout("2006-01-02"),
		"decimal_gt0":      isPositiveDecimal,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func inList(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, a := range allowed {
			if a == s {
				return true
			}
		}
		return false
	}
}

func isRole(fl validator.FieldLevel) bool {
	return lifecycle.Role(fl.Field().String()).Valid()
}

func layout(l string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(l, fl.Field().String())
		return err == nil
	}
}

// isPositiveDecimal accepts decimal strings and decimal.Decimal values.
func isPositiveDecimal(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case decimal.Decimal:
		return v.IsPositive()
	case string:
		d, err := decimal.NewFromString(v)
		return err == nil && d.IsPositive()
	}
	return false
}
