package service

import (
	"context"
	"time"

	"github.com/sourcingbee/challan/internal/cache"
	"github.com/sourcingbee/challan/internal/domain/sequence"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/types"
)

// Resolution carries everything needed to number one document group. It is
// derived per record from the group's own facility and seller, never from
// process-wide state, so records for different facilities in one run each
// get their own codes.
type Resolution struct {
	FacilityID   string
	SellerID     string
	CompanyCode  string
	FacilityCode string
	HubCode      string
	SequenceName string
}

// SkipInfo explains why a group cannot be numbered. A skip is a result,
// not an error.
type SkipInfo struct {
	Reason types.SkipReason
	Detail string
}

// IssuedNumber is one consumed counter increment rendered as a document
// number.
type IssuedNumber struct {
	Number         string
	SequenceName   string
	Value          int64
	OverFieldLimit bool
}

type SequenceService interface {
	// Resolve maps a (facility, seller, raw hub) triple onto counter
	// identity. A nil Resolution with non-nil SkipInfo means the group is
	// skipped, never failed.
	Resolve(ctx context.Context, facilityID, sellerID, rawHubID string) (*Resolution, *SkipInfo)

	// NextDocumentNumber consumes one counter increment and renders it.
	NextDocumentNumber(ctx context.Context, res *Resolution) (*IssuedNumber, error)

	// PeekDocumentNumber previews the next number without consuming it.
	// It never fails; on total backend outage it renders from the seed.
	PeekDocumentNumber(ctx context.Context, res *Resolution) string

	// GetCounter reads one counter's current value.
	GetCounter(ctx context.Context, name string) (*sequence.Counter, error)

	// ListCounters lists every known counter from the active backend.
	ListCounters(ctx context.Context) ([]*sequence.Counter, error)

	// SetCounter overrides a counter value. Lowering requires force.
	SetCounter(ctx context.Context, name string, value int64, force bool) (int64, error)

	// ActiveBackend reports which backend the chain committed to.
	ActiveBackend() string
}

type sequenceService struct {
	ServiceParams
}

func NewSequenceService(params ServiceParams) SequenceService {
	return &sequenceService{ServiceParams: params}
}

func (s *sequenceService) Resolve(ctx context.Context, facilityID, sellerID, rawHubID string) (*Resolution, *SkipInfo) {
	facility, ok := s.Config.Facility(facilityID)
	if !ok {
		return nil, &SkipInfo{
			Reason: types.SkipReasonUnknownFacility,
			Detail: "facility " + facilityID + " is not configured",
		}
	}

	if !facility.SellerActive(sellerID) {
		return nil, &SkipInfo{
			Reason: types.SkipReasonSellerNotActive,
			Detail: "seller " + sellerID + " is not active for facility " + facilityID,
		}
	}

	companyCode, ok := s.Config.CompanyCode(sellerID)
	if !ok {
		return nil, &SkipInfo{
			Reason: types.SkipReasonSellerNotActive,
			Detail: "seller " + sellerID + " has no company code configured",
		}
	}

	hubCode := ""
	if facility.MultiHub {
		extracted, recognized := sequence.ExtractHubCode(rawHubID, facility.HubCodes)
		if !recognized {
			hubCode = facility.DefaultHubCode
			s.Logger.Warnw("hub code not recognized, using facility default",
				"facility", facilityID,
				"raw_hub", rawHubID,
				"extracted", extracted,
				"default", hubCode,
			)
		} else {
			hubCode = extracted
		}
	}

	return &Resolution{
		FacilityID:   facilityID,
		SellerID:     sellerID,
		CompanyCode:  companyCode,
		FacilityCode: facility.Code,
		HubCode:      hubCode,
		SequenceName: sequence.ResolveKey(companyCode, facility.Code, hubCode),
	}, nil
}

func (s *sequenceService) NextDocumentNumber(ctx context.Context, res *Resolution) (*IssuedNumber, error) {
	value, err := s.Sequences.Next(ctx, res.SequenceName)
	if err != nil {
		return nil, err
	}

	// The counter moved, so any cached listing is stale.
	s.Cache.DeleteByPrefix(ctx, cache.PrefixSequence)

	number := sequence.FormatDocumentNumber(res.CompanyCode, res.FacilityCode, res.HubCode, value)
	issued := &IssuedNumber{
		Number:         number,
		SequenceName:   res.SequenceName,
		Value:          value,
		OverFieldLimit: sequence.ExceedsFieldLimit(number),
	}

	if issued.OverFieldLimit {
		s.Logger.Warnw("document number exceeds upload template field limit",
			"number", number,
			"length", len(number),
			"limit", types.DocumentNumberFieldLimit,
		)
	}
	return issued, nil
}

func (s *sequenceService) PeekDocumentNumber(ctx context.Context, res *Resolution) string {
	value := s.Sequences.Peek(ctx, res.SequenceName, s.Config.Sequence.Seed)
	return sequence.FormatDocumentNumber(res.CompanyCode, res.FacilityCode, res.HubCode, value+1)
}

func (s *sequenceService) GetCounter(ctx context.Context, name string) (*sequence.Counter, error) {
	counters, err := s.ListCounters(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range counters {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, ierr.NewError("sequence counter not found").
		WithHintf("No counter named %s exists yet", name).
		WithReportableDetails(map[string]any{"sequence": name}).
		Mark(ierr.ErrNotFound)
}

func (s *sequenceService) ListCounters(ctx context.Context) ([]*sequence.Counter, error) {
	cacheKey := cache.GenerateKey(cache.PrefixSequence, "list")
	if cached, ok := s.Cache.Get(ctx, cacheKey); ok {
		if counters, ok := cached.([]*sequence.Counter); ok {
			return counters, nil
		}
	}

	counters, err := s.Sequences.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, cacheKey, counters, 30*time.Second)
	return counters, nil
}

func (s *sequenceService) SetCounter(ctx context.Context, name string, value int64, force bool) (int64, error) {
	result, err := s.Sequences.SetValue(ctx, name, value, force)
	if err != nil {
		return 0, err
	}
	s.Cache.DeleteByPrefix(ctx, cache.PrefixSequence)
	return result, nil
}

func (s *sequenceService) ActiveBackend() string {
	return s.Sequences.ActiveBackend()
}
