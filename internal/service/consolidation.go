package service

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/sourcingbee/challan/internal/domain/audit"
	"github.com/sourcingbee/challan/internal/domain/document"
	"github.com/sourcingbee/challan/internal/domain/sequence"
	"github.com/sourcingbee/challan/internal/domain/shipment"
	"github.com/sourcingbee/challan/internal/types"
)

// GroupFailure is a group that was resolved and eligible but could not be
// numbered, usually because every counter backend was down or the retry
// limit was exhausted. Failures never abort the run; numbers already issued for
// earlier groups cannot be taken back.
type GroupFailure struct {
	Key   document.GroupKey `json:"key"`
	Error string            `json:"error"`
}

// RunResult reports everything a generation run did: numbered bundles,
// skipped groups with reasons, and hard failures.
type RunResult struct {
	RunID     string                  `json:"run_id"`
	VehicleID string                  `json:"vehicle_id"`
	Bundles   []*document.Bundle      `json:"bundles"`
	Skipped   []document.SkippedGroup `json:"skipped"`
	Failures  []GroupFailure          `json:"failures"`
	StartedAt time.Time               `json:"started_at"`
}

type ConsolidationService interface {
	// GenerateRun consolidates a vehicle's line items into numbered
	// document bundles. One counter increment is consumed per group
	// regardless of how many parts the group splits into.
	GenerateRun(ctx context.Context, facilityID, vehicleID string, items []shipment.LineItem) (*RunResult, error)
}

type consolidationService struct {
	ServiceParams
	sequences SequenceService
}

func NewConsolidationService(params ServiceParams, sequences SequenceService) ConsolidationService {
	return &consolidationService{ServiceParams: params, sequences: sequences}
}

func (s *consolidationService) GenerateRun(ctx context.Context, facilityID, vehicleID string, items []shipment.LineItem) (*RunResult, error) {
	result := &RunResult{
		RunID:     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_GENERATION_RUN),
		VehicleID: vehicleID,
		Bundles:   []*document.Bundle{},
		Skipped:   []document.SkippedGroup{},
		Failures:  []GroupFailure{},
		StartedAt: time.Now().UTC(),
	}

	groups := groupLineItems(items)

	s.Logger.Infow("starting generation run",
		"run_id", result.RunID,
		"vehicle_id", vehicleID,
		"facility_id", facilityID,
		"line_items", len(items),
		"groups", len(groups),
	)

	for _, group := range groups {
		s.processGroup(ctx, facilityID, group, result)
	}

	s.Logger.Infow("generation run finished",
		"run_id", result.RunID,
		"vehicle_id", vehicleID,
		"bundles", len(result.Bundles),
		"skipped", len(result.Skipped),
		"failures", len(result.Failures),
	)
	return result, nil
}

// groupLineItems partitions items by (destination hub, seller) and returns
// the groups sorted by hub then seller. Destination identity is the only
// grouping dimension: items from different source trips merge when they
// share hub and seller. Intake order is preserved inside each group so that
// splitting later keeps items in their original order.
func groupLineItems(items []shipment.LineItem) []*document.Group {
	byKey := make(map[document.GroupKey]*document.Group)
	var order []document.GroupKey

	for _, item := range items {
		key := document.GroupKey{HubID: item.HubID, SellerID: item.SellerID}
		group, ok := byKey[key]
		if !ok {
			group = &document.Group{Key: key}
			byKey[key] = group
			order = append(order, key)
		}
		group.LineItems = append(group.LineItems, item)
		if !lo.Contains(group.TripIDs, item.TripID) {
			group.TripIDs = append(group.TripIDs, item.TripID)
		}
	}

	groups := make([]*document.Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, byKey[key])
	}

	// Deterministic processing order makes serial assignment reproducible
	// for identical input against identical counter state.
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Key.HubID != groups[j].Key.HubID {
			return groups[i].Key.HubID < groups[j].Key.HubID
		}
		return groups[i].Key.SellerID < groups[j].Key.SellerID
	})
	return groups
}

func (s *consolidationService) processGroup(ctx context.Context, facilityID string, group *document.Group, result *RunResult) {
	if len(group.LineItems) == 0 {
		result.Skipped = append(result.Skipped, document.SkippedGroup{
			Key:     group.Key,
			Reason:  types.SkipReasonEmptyLineItems,
			Detail:  "group has no line items",
			TripIDs: group.TripIDs,
		})
		return
	}

	res, skip := s.sequences.Resolve(ctx, facilityID, group.Key.SellerID, group.Key.HubID)
	if skip != nil {
		s.Logger.Infow("skipping document group",
			"run_id", result.RunID,
			"hub", group.Key.HubID,
			"seller", group.Key.SellerID,
			"reason", skip.Reason,
			"detail", skip.Detail,
		)
		result.Skipped = append(result.Skipped, document.SkippedGroup{
			Key:       group.Key,
			Reason:    skip.Reason,
			Detail:    skip.Detail,
			ItemCount: len(group.LineItems),
			TripIDs:   group.TripIDs,
		})
		return
	}

	// One increment for the whole group. Splitting below is a rendering
	// partition of an already-numbered document, not a renumbering event.
	issued, err := s.sequences.NextDocumentNumber(ctx, res)
	if err != nil {
		s.Logger.Errorw("failed to number document group",
			"run_id", result.RunID,
			"hub", group.Key.HubID,
			"seller", group.Key.SellerID,
			"sequence", res.SequenceName,
			"error", err,
		)
		s.Sentry.CaptureException(err)
		result.Failures = append(result.Failures, GroupFailure{
			Key:   group.Key,
			Error: err.Error(),
		})
		return
	}

	chunks := lo.Chunk(group.LineItems, s.Config.Sequence.MaxItemsPerDocument)
	bundles := s.buildBundles(group, res, issued, chunks)

	// The number is issued and cannot be rolled back, so audit failures
	// must not discard the bundles. All parts of the group go in one batch
	// so the backend can write them atomically.
	if err := s.recordAudit(ctx, result, group, bundles); err != nil {
		s.Logger.Errorw("failed to write audit records for issued number",
			"run_id", result.RunID,
			"parent_serial", issued.Number,
			"parts", len(bundles),
			"error", err,
		)
		s.Sentry.CaptureException(err)
	}

	result.Bundles = append(result.Bundles, bundles...)
}

func (s *consolidationService) buildBundles(group *document.Group, res *Resolution, issued *IssuedNumber, chunks [][]shipment.LineItem) []*document.Bundle {
	bundles := make([]*document.Bundle, 0, len(chunks))
	for i, chunk := range chunks {
		part := i + 1

		totalQuantity := decimal.Zero
		totalValue := decimal.Zero
		for _, item := range chunk {
			totalQuantity = totalQuantity.Add(item.Quantity)
			totalValue = totalValue.Add(item.TaxableValue)
		}

		number := sequence.AppendPartSuffix(issued.Number, part, s.Config.Sequence.PartSuffixFormat)
		bundles = append(bundles, &document.Bundle{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BUNDLE),
			DocumentNumber: number,
			ParentSerial:   issued.Number,
			PartIndex:      part,
			PartCount:      len(chunks),
			LineItems:      chunk,
			HubID:          group.Key.HubID,
			SellerID:       group.Key.SellerID,
			CompanyCode:    res.CompanyCode,
			FacilityCode:   res.FacilityCode,
			HubCode:        res.HubCode,
			SequenceName:   issued.SequenceName,
			SequenceValue:  issued.Value,
			TotalQuantity:  totalQuantity,
			TotalValue:     totalValue,
			OverFieldLimit: issued.OverFieldLimit,
		})
	}
	return bundles
}

func (s *consolidationService) recordAudit(ctx context.Context, result *RunResult, group *document.Group, bundles []*document.Bundle) error {
	records := make([]*audit.Record, 0, len(bundles))
	for _, bundle := range bundles {
		records = append(records, &audit.Record{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AUDIT_RECORD),
			RunID:          result.RunID,
			VehicleID:      result.VehicleID,
			DocumentNumber: bundle.DocumentNumber,
			ParentSerial:   bundle.ParentSerial,
			PartIndex:      bundle.PartIndex,
			PartCount:      bundle.PartCount,
			TripIDs:        group.TripIDs,
			SequenceName:   bundle.SequenceName,
			SequenceValue:  bundle.SequenceValue,
			CreatedAt:      time.Now().UTC(),
		})
	}
	return s.AuditRepo.RecordMany(ctx, records)
}
