package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/sourcingbee/challan/internal/cache"
	"github.com/sourcingbee/challan/internal/config"
	"github.com/sourcingbee/challan/internal/domain/sequence"
	"github.com/sourcingbee/challan/internal/domain/shipment"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/repository"
	"github.com/sourcingbee/challan/internal/sentry"
	"github.com/sourcingbee/challan/internal/testutil"
	"github.com/sourcingbee/challan/internal/types"
	"github.com/sourcingbee/challan/internal/validator"
)

type ConsolidationServiceSuite struct {
	suite.Suite
	ctx       context.Context
	cfg       *config.Configuration
	store     *testutil.InMemorySequenceStore
	auditRepo *repository.InMemoryAuditRepository
	svc       ConsolidationService
}

func TestConsolidationService(t *testing.T) {
	suite.Run(t, new(ConsolidationServiceSuite))
}

func (s *ConsolidationServiceSuite) SetupTest() {
	validator.NewValidator()

	s.ctx = context.Background()
	s.cfg = config.GetDefaultConfig()

	log, err := logger.NewLogger(s.cfg)
	s.Require().NoError(err)

	s.store = testutil.NewInMemorySequenceStore(s.cfg.Sequence.Seed)
	chain := repository.NewChain([]sequence.Store{s.store}, log)
	s.Require().NoError(chain.Init(s.ctx))

	c := cache.NewInMemoryCache()
	c.Flush(s.ctx)

	s.auditRepo = repository.NewInMemoryAuditRepository()
	params := NewServiceParams(log, s.cfg, c, sentry.NewSentryService(s.cfg, log), chain, s.auditRepo)
	s.svc = NewConsolidationService(params, NewSequenceService(params))
}

func lineItems(n int, tripID, sellerID, hubID string) []shipment.LineItem {
	items := make([]shipment.LineItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, shipment.LineItem{
			TripID:       tripID,
			SellerID:     sellerID,
			HubID:        hubID,
			Description:  fmt.Sprintf("item-%d", i),
			HSNCode:      "7214",
			Quantity:     decimal.NewFromInt(1),
			TaxableValue: decimal.NewFromInt(100),
			TaxRateClass: "18",
		})
	}
	return items
}

func (s *ConsolidationServiceSuite) TestSingleGroupSingleBundle() {
	result, err := s.svc.GenerateRun(s.ctx, "hyderabad", "KA01AB1234",
		lineItems(10, "TRIP-1", "AMOLAKCHAND", "HYD_NCH"))
	s.Require().NoError(err)

	s.Require().Len(result.Bundles, 1)
	s.Empty(result.Skipped)
	s.Empty(result.Failures)

	b := result.Bundles[0]
	s.Equal("AKDCHYDNCH00000301", b.DocumentNumber)
	s.Equal(b.DocumentNumber, b.ParentSerial)
	s.Equal(1, b.PartIndex)
	s.Equal(1, b.PartCount)
	s.Len(b.LineItems, 10)
	s.True(decimal.NewFromInt(1000).Equal(b.TotalValue))
	s.True(decimal.NewFromInt(10).Equal(b.TotalQuantity))
}

func (s *ConsolidationServiceSuite) TestSplitPreservesOrderAndConsumesOneIncrement() {
	result, err := s.svc.GenerateRun(s.ctx, "hyderabad", "KA01AB1234",
		lineItems(300, "TRIP-1", "AMOLAKCHAND", "HYD_NCH"))
	s.Require().NoError(err)

	s.Require().Len(result.Bundles, 2)

	head, tail := result.Bundles[0], result.Bundles[1]
	s.Equal("AKDCHYDNCH00000301", head.DocumentNumber)
	s.Equal("AKDCHYDNCH00000301_02", tail.DocumentNumber)
	s.Equal(head.ParentSerial, tail.ParentSerial)
	s.Equal(1, head.PartIndex)
	s.Equal(2, tail.PartIndex)
	s.Equal(2, head.PartCount)
	s.Len(head.LineItems, 250)
	s.Len(tail.LineItems, 50)

	// Concatenating parts reproduces the original ordered list.
	idx := 0
	for _, b := range result.Bundles {
		for _, item := range b.LineItems {
			s.Equal(fmt.Sprintf("item-%d", idx), item.Description)
			idx++
		}
	}

	s.Equal(int64(1), s.store.TotalIncrements("akdchydnch_seq"))
}

func (s *ConsolidationServiceSuite) TestSplitBundleCount() {
	// 501 items with a 250 ceiling gives ceil(501/250) = 3 bundles.
	result, err := s.svc.GenerateRun(s.ctx, "hyderabad", "KA01AB1234",
		lineItems(501, "TRIP-1", "AMOLAKCHAND", "HYD_NCH"))
	s.Require().NoError(err)

	s.Require().Len(result.Bundles, 3)
	s.Len(result.Bundles[2].LineItems, 1)
	s.Equal("AKDCHYDNCH00000301_03", result.Bundles[2].DocumentNumber)
	s.Equal(int64(1), s.store.TotalIncrements("akdchydnch_seq"))
}

func (s *ConsolidationServiceSuite) TestGroupsMergeAcrossTrips() {
	items := append(
		lineItems(5, "TRIP-1", "AMOLAKCHAND", "HYD_NCH"),
		lineItems(5, "TRIP-2", "AMOLAKCHAND", "HYD_NCH")...,
	)

	result, err := s.svc.GenerateRun(s.ctx, "hyderabad", "KA01AB1234", items)
	s.Require().NoError(err)

	// Same destination and seller is the only grouping rule; trips merge.
	s.Require().Len(result.Bundles, 1)
	s.Len(result.Bundles[0].LineItems, 10)

	records, err := s.auditRepo.QueryByRun(s.ctx, result.RunID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.ElementsMatch([]string{"TRIP-1", "TRIP-2"}, []string(records[0].TripIDs))
}

func (s *ConsolidationServiceSuite) TestDeterministicGroupOrder() {
	items := append(
		lineItems(2, "TRIP-1", "AMOLAKCHAND", "HYD_SGR"),
		lineItems(2, "TRIP-1", "AMOLAKCHAND", "HYD_BVG")...,
	)

	result, err := s.svc.GenerateRun(s.ctx, "hyderabad", "KA01AB1234", items)
	s.Require().NoError(err)

	s.Require().Len(result.Bundles, 2)
	// Sorted by hub, so BVG is numbered before SGR regardless of intake order.
	s.Equal("HYD_BVG", result.Bundles[0].HubID)
	s.Equal("HYD_SGR", result.Bundles[1].HubID)
	s.Equal("AKDCHYDBVG00000301", result.Bundles[0].DocumentNumber)
	s.Equal("AKDCHYDSGR00000301", result.Bundles[1].DocumentNumber)
}

func (s *ConsolidationServiceSuite) TestInactiveSellerSkippedSiblingSucceeds() {
	items := append(
		lineItems(3, "TRIP-1", "SOURCINGBEE", "HYD_NCH"),
		lineItems(3, "TRIP-2", "AMOLAKCHAND", "HYD_NCH")...,
	)

	result, err := s.svc.GenerateRun(s.ctx, "hyderabad", "KA01AB1234", items)
	s.Require().NoError(err)

	s.Require().Len(result.Bundles, 1)
	s.Equal("AMOLAKCHAND", result.Bundles[0].SellerID)

	s.Require().Len(result.Skipped, 1)
	s.Equal(types.SkipReasonSellerNotActive, result.Skipped[0].Reason)
	s.Equal("SOURCINGBEE", result.Skipped[0].Key.SellerID)
	s.Equal(3, result.Skipped[0].ItemCount)

	// The skipped group consumed no counter increment.
	s.Equal(int64(1), s.store.TotalIncrements("akdchydnch_seq"))
}

func (s *ConsolidationServiceSuite) TestUnknownFacilitySkipsEverything() {
	result, err := s.svc.GenerateRun(s.ctx, "unknown-facility", "KA01AB1234",
		lineItems(3, "TRIP-1", "AMOLAKCHAND", "HYD_NCH"))
	s.Require().NoError(err)

	s.Empty(result.Bundles)
	s.Require().Len(result.Skipped, 1)
	s.Equal(types.SkipReasonUnknownFacility, result.Skipped[0].Reason)
}

func (s *ConsolidationServiceSuite) TestNumberingFailureDoesNotAbortRun() {
	// First group hits conflict exhaustion; the second still gets a number.
	s.store.NextErrs = []error{
		ierr.NewError("sequence increment conflict").Mark(ierr.ErrSequenceConflict),
	}

	items := append(
		lineItems(2, "TRIP-1", "AMOLAKCHAND", "HYD_BVG"),
		lineItems(2, "TRIP-2", "AMOLAKCHAND", "HYD_SGR")...,
	)

	result, err := s.svc.GenerateRun(s.ctx, "hyderabad", "KA01AB1234", items)
	s.Require().NoError(err)

	s.Require().Len(result.Failures, 1)
	s.Equal("HYD_BVG", result.Failures[0].Key.HubID)

	s.Require().Len(result.Bundles, 1)
	s.Equal("HYD_SGR", result.Bundles[0].HubID)
}

func (s *ConsolidationServiceSuite) TestAuditCompleteness() {
	items := append(
		lineItems(300, "TRIP-1", "AMOLAKCHAND", "HYD_NCH"),
		lineItems(2, "TRIP-2", "AMOLAKCHAND", "HYD_BVG")...,
	)

	result, err := s.svc.GenerateRun(s.ctx, "hyderabad", "KA01AB1234", items)
	s.Require().NoError(err)
	s.Require().Len(result.Bundles, 3)

	records, err := s.auditRepo.QueryByVehicle(s.ctx, "KA01AB1234")
	s.Require().NoError(err)
	s.Require().Len(records, len(result.Bundles))

	byNumber := make(map[string]bool)
	for _, record := range records {
		byNumber[record.DocumentNumber] = true
		s.Equal(result.RunID, record.RunID)
		s.NotEmpty(record.TripIDs)
	}
	for _, b := range result.Bundles {
		s.True(byNumber[b.DocumentNumber], "missing audit record for %s", b.DocumentNumber)
	}
}

func (s *ConsolidationServiceSuite) TestEmptyRun() {
	result, err := s.svc.GenerateRun(s.ctx, "hyderabad", "KA01AB1234", nil)
	s.Require().NoError(err)

	s.Empty(result.Bundles)
	s.Empty(result.Skipped)
	s.Empty(result.Failures)
	s.NotEmpty(result.RunID)
}
