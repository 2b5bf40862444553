package anomaly

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/truthsource/insight-service/internal/domain"
)

func (d *Detector) detectInventory(ctx context.Context, organizationID string) ([]domain.AnomalyAlert, error) {
	var alerts []domain.AnomalyAlert

	since := d.now().AddDate(0, 0, -FrequentAdjustmentWindowDays)
	adjustments, err := d.store.FetchRecentAdjustments(ctx, organizationID, since)
	if err != nil {
		return nil, err
	}

	// Rule (a): single large adjustment, strictly above the threshold.
	for _, adj := range adjustments {
		delta := math.Abs(adj.Delta)
		if delta <= AdjustmentSpikeThreshold {
			continue
		}
		severity := domain.SeverityWarning
		if delta > AdjustmentCriticalThreshold {
			severity = domain.SeverityCritical
		}
		alerts = append(alerts, d.newAlert(
			domain.AnomalyAdjustmentSpike,
			severity,
			"Large inventory adjustment",
			fmt.Sprintf("Inventory for %s was adjusted by %+.0f units in a single event.", adjustmentLabel(adj), adj.Delta),
			ruleConfidence,
			[]domain.RelatedEntity{{Type: "product", ID: adj.ProductID, Name: adj.ProductName}},
			[]string{
				"Verify the adjustment against physical count records",
				"Check for data-entry errors in the adjustment reason",
			},
		))
	}

	// Rule (b): frequent adjustments per (product, warehouse).
	type pwKey struct{ product, warehouse string }
	counts := make(map[pwKey]int)
	names := make(map[pwKey]string)
	for _, adj := range adjustments {
		k := pwKey{adj.ProductID, adj.WarehouseID}
		counts[k]++
		names[k] = adj.ProductName
	}
	keys := make([]pwKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].product != keys[j].product {
			return keys[i].product < keys[j].product
		}
		return keys[i].warehouse < keys[j].warehouse
	})
	for _, k := range keys {
		if counts[k] <= FrequentAdjustmentCount {
			continue
		}
		alerts = append(alerts, d.newAlert(
			domain.AnomalyFrequentAdjustments,
			domain.SeverityWarning,
			"Frequent inventory adjustments",
			fmt.Sprintf("%d adjustments recorded for product %s in warehouse %s within %d days.",
				counts[k], displayName(names[k], k.product), k.warehouse, FrequentAdjustmentWindowDays),
			ruleConfidence,
			[]domain.RelatedEntity{{Type: "product", ID: k.product, Name: names[k]}},
			[]string{
				"Audit the adjustment trail for this product",
				"Review receiving and cycle-count procedures at the warehouse",
			},
		))
	}

	inventory, err := d.store.FetchInventory(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	demandSince := d.now().AddDate(0, 0, -DemandTrailingWindowDays)
	for _, row := range inventory {
		if row.Product == nil || !row.Product.IsActive {
			continue
		}

		// Rule (c): stock-out on an active product.
		if row.Quantity == 0 {
			alerts = append(alerts, d.newAlert(
				domain.AnomalyStockOut,
				domain.SeverityCritical,
				"Stock-out",
				fmt.Sprintf("Active product %s is out of stock in warehouse %s.",
					displayName(row.Product.Name, row.ProductID), row.WarehouseID),
				ruleConfidence,
				[]domain.RelatedEntity{{Type: "product", ID: row.ProductID, Name: row.Product.Name}},
				[]string{
					"Expedite an open purchase order if one exists",
					"Check the reorder point configuration for this product",
				},
			))
			continue
		}

		// Rule (d): excess inventory by months of supply.
		lines, err := d.store.FetchOrderLines(ctx, row.ProductID, row.WarehouseID, demandSince)
		if err != nil {
			return nil, err
		}
		var totalDemand float64
		for _, line := range lines {
			totalDemand += line.Quantity
		}

		months := InfiniteMonthsSentinel
		if totalDemand > 0 {
			months = float64(row.Quantity) / (totalDemand / 3)
		}
		if months > ExcessMonthsOfSupply {
			alerts = append(alerts, d.newAlert(
				domain.AnomalyExcessInventory,
				domain.SeverityWarning,
				"Excess inventory",
				fmt.Sprintf("Product %s in warehouse %s holds %.0f months of supply at the current sales rate.",
					displayName(row.Product.Name, row.ProductID), row.WarehouseID, months),
				ruleConfidence,
				[]domain.RelatedEntity{{Type: "product", ID: row.ProductID, Name: row.Product.Name}},
				[]string{
					"Consider a promotion or markdown to move stock",
					"Pause replenishment for this product",
				},
			))
		}
	}

	return alerts, nil
}

func (d *Detector) detectOrders(ctx context.Context, organizationID string) ([]domain.AnomalyAlert, error) {
	var alerts []domain.AnomalyAlert

	now := d.now()
	today := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	baselineStart := today.AddDate(0, 0, -OrderBaselineWindowDays)

	orders, err := d.store.FetchRecentOrders(ctx, organizationID, baselineStart)
	if err != nil {
		return nil, err
	}

	// Daily counts over the trailing window, zero-filled; today kept apart.
	counts := make(map[time.Time]int)
	todayCount := 0
	for _, order := range orders {
		u := order.CreatedAt.UTC()
		day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		if day.Equal(today) {
			todayCount++
			continue
		}
		counts[day]++
	}

	baseline := make([]float64, 0, OrderBaselineWindowDays)
	for day := baselineStart; day.Before(today); day = day.AddDate(0, 0, 1) {
		baseline = append(baseline, float64(counts[day]))
	}

	m := meanOf(baseline)
	sigma := stdDevOf(baseline)

	switch {
	case sigma > 0 && float64(todayCount) > m+OrderVolumeSigmaThreshold*sigma:
		alerts = append(alerts, d.newAlert(
			domain.AnomalyOrderVolumeSpike,
			domain.SeverityInfo,
			"Order volume spike",
			fmt.Sprintf("Today's order count (%d) is more than %.0f standard deviations above the %d-day average of %.1f.",
				todayCount, OrderVolumeSigmaThreshold, OrderBaselineWindowDays, m),
			statisticalConfidence,
			nil,
			[]string{"Confirm fulfillment capacity for the increased volume"},
		))
	case sigma > 0 && float64(todayCount) < m-OrderVolumeSigmaThreshold*sigma && m > OrderDropMinimumMean:
		alerts = append(alerts, d.newAlert(
			domain.AnomalyOrderVolumeDrop,
			domain.SeverityWarning,
			"Order volume drop",
			fmt.Sprintf("Today's order count (%d) is more than %.0f standard deviations below the %d-day average of %.1f.",
				todayCount, OrderVolumeSigmaThreshold, OrderBaselineWindowDays, m),
			statisticalConfidence,
			nil,
			[]string{
				"Check storefront and checkout availability",
				"Verify order ingestion from connected channels",
			},
		))
	}

	// Large single orders, one alert per qualifying order.
	for _, order := range orders {
		if order.Total <= LargeOrderTotal {
			continue
		}
		alerts = append(alerts, d.newAlert(
			domain.AnomalyLargeOrder,
			domain.SeverityInfo,
			"Large order",
			fmt.Sprintf("Order %s totals %.2f, above the %.0f review threshold.",
				displayName(order.OrderNumber, order.ID), order.Total, LargeOrderTotal),
			ruleConfidence,
			[]domain.RelatedEntity{{Type: "order", ID: order.ID, Name: order.OrderNumber}},
			[]string{"Review the order for pricing and credit exposure"},
		))
	}

	return alerts, nil
}

func (d *Detector) detectPricing(ctx context.Context, organizationID string) ([]domain.AnomalyAlert, error) {
	var alerts []domain.AnomalyAlert

	since := d.now().AddDate(0, 0, -PriceVolatilityWindowDays)
	changes, err := d.store.FetchRecentPriceChanges(ctx, organizationID, since)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string][]domain.PriceChange)
	var productIDs []string
	for _, change := range changes {
		if _, seen := byProduct[change.ProductID]; !seen {
			productIDs = append(productIDs, change.ProductID)
		}
		byProduct[change.ProductID] = append(byProduct[change.ProductID], change)
	}
	sort.Strings(productIDs)

	for _, productID := range productIDs {
		history := byProduct[productID]
		sort.Slice(history, func(i, j int) bool { return history[i].CreatedAt.Before(history[j].CreatedAt) })

		name := history[0].ProductName

		if len(history) > PriceVolatilityChangeCount {
			alerts = append(alerts, d.newAlert(
				domain.AnomalyPriceVolatility,
				domain.SeverityWarning,
				"Price volatility",
				fmt.Sprintf("Product %s had %d price changes within %d days.",
					displayName(name, productID), len(history), PriceVolatilityWindowDays),
				ruleConfidence,
				[]domain.RelatedEntity{{Type: "product", ID: productID, Name: name}},
				[]string{"Review pricing rules and recent repricing jobs for this product"},
			))
		}

		// Consecutive transitions beyond 20% in either direction, one alert each. A zero prior
		// price can't produce a ratio, so those transitions are skipped.
		for i := 1; i < len(history); i++ {
			prev := history[i-1].Price
			if prev == 0 {
				continue
			}
			ratio := (history[i].Price - prev) / prev
			if math.Abs(ratio) <= LargePriceChangeRatio {
				continue
			}
			alerts = append(alerts, d.newAlert(
				domain.AnomalyLargePriceChange,
				domain.SeverityWarning,
				"Large price change",
				fmt.Sprintf("Product %s price moved %+.1f%% (from %.2f to %.2f) in one step.",
					displayName(name, productID), ratio*100, prev, history[i].Price),
				ruleConfidence,
				[]domain.RelatedEntity{{Type: "product", ID: productID, Name: name}},
				[]string{"Confirm the price change was intentional"},
			))
		}
	}

	return alerts, nil
}

func adjustmentLabel(adj domain.Adjustment) string {
	return displayName(adj.ProductName, adj.ProductID)
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDevOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := meanOf(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
