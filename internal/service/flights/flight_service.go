package flights

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/Domenick1991/flightbooker/internal/pricing"
	"github.com/Domenick1991/flightbooker/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const (
	SortByPrice     = "price"
	SortByDuration  = "duration"
	SortByDeparture = "departure"
)

type FlightUseCase interface {
	Search(ctx context.Context, input SearchInput) ([]FlightQuote, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error)
	Airports(ctx context.Context) ([]domain.Airport, error)
	Airlines(ctx context.Context) ([]domain.Airline, error)
}

// FlightCache keeps the full flight list under a generation that bookings
// bump; a list is written back under the generation it was read at.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, int64, error)
	SetFlights(ctx context.Context, gen int64, flights []domain.Flight) error
	GetDirectory(ctx context.Context) (*domain.Directory, error)
	SetDirectory(ctx context.Context, dir domain.Directory) error
}

type Quoter interface {
	Price(in pricing.Input, now time.Time) int64
	Trend(totalSeats, availableSeats int) pricing.Trend
}

type SearchInput struct {
	Origin      string     `json:"origin" validate:"omitempty,len=3,alpha"`
	Destination string     `json:"destination" validate:"omitempty,len=3,alpha"`
	Airline     string     `json:"airline" validate:"omitempty,min=2,max=3,alphanum"`
	Date        *time.Time `json:"date,omitempty"`
	SortBy      string     `json:"sort_by" validate:"omitempty,oneof=price duration departure"`
}

// FlightQuote is a flight with the price it would sell at right now. The
// price carries fresh jitter on every search.
type FlightQuote struct {
	domain.Flight
	CurrentPriceCents int64         `json:"current_price_cents"`
	PriceTrend        pricing.Trend `json:"price_trend"`
	DurationMinutes   int           `json:"duration_minutes"`

	AirlineInfo        domain.Airline `json:"airline_info"`
	OriginAirport      domain.Airport `json:"origin_airport"`
	DestinationAirport domain.Airport `json:"destination_airport"`
}

type FlightService struct {
	repo     repository.FlightRepository
	quoter   Quoter
	cache    FlightCache
	validate *validator.Validate
	logger   *logrus.Logger
	now      func() time.Time
}

type FlightServiceOption func(*FlightService)

// WithCache serves searches from the cached flight list when it is present.
func WithCache(cache FlightCache) FlightServiceOption {
	return func(s *FlightService) {
		s.cache = cache
	}
}

func WithClock(now func() time.Time) FlightServiceOption {
	return func(s *FlightService) {
		s.now = now
	}
}

func NewFlightService(repo repository.FlightRepository, quoter Quoter, logger *logrus.Logger, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		repo:     repo,
		quoter:   quoter,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) Search(ctx context.Context, input SearchInput) ([]FlightQuote, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	filter := repository.FlightFilter{
		Origin:      strings.ToUpper(input.Origin),
		Destination: strings.ToUpper(input.Destination),
		Airline:     strings.ToUpper(input.Airline),
		Date:        input.Date,
	}

	flights, err := s.flights(ctx, filter)
	if err != nil {
		return nil, err
	}
	dir, err := s.directory(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	quotes := make([]FlightQuote, 0, len(flights))
	for _, f := range flights {
		quotes = append(quotes, FlightQuote{
			Flight: f,
			CurrentPriceCents: s.quoter.Price(pricing.Input{
				BasePriceCents: f.BasePriceCents,
				TotalSeats:     f.TotalSeats,
				AvailableSeats: f.AvailableSeats,
				DepartureTime:  f.DepartureTime,
			}, now),
			PriceTrend:         s.quoter.Trend(f.TotalSeats, f.AvailableSeats),
			DurationMinutes:    int(f.Duration() / time.Minute),
			AirlineInfo:        dir.Airline(f.Airline),
			OriginAirport:      dir.Airport(f.Origin),
			DestinationAirport: dir.Airport(f.Destination),
		})
	}
	sortQuotes(quotes, input.SortBy)
	return quotes, nil
}

// flights reads through the cached full list when a cache is configured and
// falls back to a filtered repository query otherwise.
func (s *FlightService) flights(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error) {
	if s.cache == nil {
		return s.repo.Search(ctx, filter)
	}

	all, gen, cacheErr := s.cache.GetFlights(ctx)
	if cacheErr != nil {
		s.logger.WithError(cacheErr).Warn("read flights cache")
	}
	if all == nil {
		var err error
		if all, err = s.repo.List(ctx); err != nil {
			return nil, err
		}
		// Without a generation the list could be written over a newer one.
		if cacheErr == nil {
			if err := s.cache.SetFlights(ctx, gen, all); err != nil {
				s.logger.WithError(err).Warn("fill flights cache")
			}
		}
	}

	matched := make([]domain.Flight, 0, len(all))
	for _, f := range all {
		if filter.Match(f) {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

func sortQuotes(quotes []FlightQuote, sortBy string) {
	slices.SortStableFunc(quotes, func(a, b FlightQuote) int {
		switch sortBy {
		case SortByPrice:
			if c := cmp.Compare(a.CurrentPriceCents, b.CurrentPriceCents); c != 0 {
				return c
			}
		case SortByDuration:
			if c := cmp.Compare(a.DurationMinutes, b.DurationMinutes); c != 0 {
				return c
			}
		}
		return a.DepartureTime.Compare(b.DepartureTime)
	})
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	if _, err := s.repo.GetByID(ctx, flightID); err != nil {
		return nil, err
	}
	return s.repo.ListSeats(ctx, flightID)
}

func (s *FlightService) Airports(ctx context.Context) ([]domain.Airport, error) {
	dir, err := s.directory(ctx)
	if err != nil {
		return nil, err
	}
	return dir.Airports, nil
}

func (s *FlightService) Airlines(ctx context.Context) ([]domain.Airline, error) {
	dir, err := s.directory(ctx)
	if err != nil {
		return nil, err
	}
	return dir.Airlines, nil
}

// directory reads the airports and airlines through the cache.
func (s *FlightService) directory(ctx context.Context) (domain.Directory, error) {
	if s.cache != nil {
		cached, err := s.cache.GetDirectory(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("read directory cache")
		}
		if cached != nil {
			return *cached, nil
		}
	}

	airports, err := s.repo.ListAirports(ctx)
	if err != nil {
		return domain.Directory{}, err
	}
	airlines, err := s.repo.ListAirlines(ctx)
	if err != nil {
		return domain.Directory{}, err
	}
	dir := domain.Directory{Airports: airports, Airlines: airlines}

	if s.cache != nil {
		if err := s.cache.SetDirectory(ctx, dir); err != nil {
			s.logger.WithError(err).Warn("fill directory cache")
		}
	}
	return dir, nil
}

var _ FlightUseCase = (*FlightService)(nil)
